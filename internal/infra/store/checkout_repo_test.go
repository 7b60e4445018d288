// File: internal/infra/store/checkout_repo_test.go
package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/infra/store"
)

func TestFileCheckoutRepo_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo, err := store.NewFileCheckoutRepo(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	co := &model.PendingCheckout{
		PreferenceID: "pref-1",
		SubscriberID: "42",
		Username:     "alice",
		PlanID:       "mensal",
		CreatedAt:    time.Now(),
	}
	if err := repo.Save(ctx, co); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	got, err := repo.FindByKey(ctx, "pref-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.SubscriberID != "42" || got.PlanID != "mensal" {
		t.Errorf("unexpected record: %+v", got)
	}

	if err := repo.Save(ctx, &model.PendingCheckout{}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty key, got: %v", err)
	}
}

func TestFileCheckoutRepo_DeleteAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	repo, err := store.NewFileCheckoutRepo(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	// Duplicate payment deliveries delete the same checkout twice; the
	// second delete must not fail.
	if err := repo.Delete(ctx, "pref-missing"); err != nil {
		t.Fatalf("expected no error deleting an absent key, got: %v", err)
	}
}

func TestFileCheckoutRepo_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	repo, err := store.NewFileCheckoutRepo(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, &model.PendingCheckout{
		PreferenceID: "pref-1",
		SubscriberID: "42",
		PlanID:       "mensal",
		CreatedAt:    time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	reopened, err := store.NewFileCheckoutRepo(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reopened.FindByKey(ctx, "pref-1"); err != nil {
		t.Fatalf("expected the checkout to survive a restart, got: %v", err)
	}

	if err := reopened.Delete(ctx, "pref-1"); err != nil {
		t.Fatal(err)
	}
	third, err := store.NewFileCheckoutRepo(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := third.FindByKey(ctx, "pref-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected the delete to be durable, got: %v", err)
	}
}
