package services

import (
	"testing"

	"kakeibo/internal/models"
	"kakeibo/internal/testutil"
)

func TestCreateTag(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		user := testutil.CreateTestUser(t, db)

		tag, err := svc.CreateTag(user.ID, " travel ", "#00FF00")
		testutil.AssertNoError(t, err)
		if tag.Name != "travel" {
			t.Errorf("expected trimmed name travel, got %q", tag.Name)
		}
	})

	t.Run("duplicate_case_insensitive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTag(user.ID, "Work", "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTag(user.ID, "work", "")
		testutil.AssertAppError(t, err, "DUPLICATE_TAG")
	})

	t.Run("same_name_other_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTag(user.ID, "Work", "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTag(other.ID, "Work", "")
		testutil.AssertNoError(t, err)
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)

		_, err := svc.CreateTag("user", "  ", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserTags(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTagService(db)
	user := testutil.CreateTestUser(t, db)

	tags, err := svc.GetUserTags(user.ID)
	testutil.AssertNoError(t, err)
	if tags == nil || len(tags) != 0 {
		t.Errorf("expected empty non-nil list, got %v", tags)
	}

	_, err = svc.CreateTag(user.ID, "b", "")
	testutil.AssertNoError(t, err)
	_, err = svc.CreateTag(user.ID, "a", "")
	testutil.AssertNoError(t, err)

	tags, err = svc.GetUserTags(user.ID)
	testutil.AssertNoError(t, err)
	if len(tags) != 2 || tags[0].Name != "a" {
		t.Errorf("expected tags sorted by name, got %+v", tags)
	}
}

func TestUpdateTag(t *testing.T) {
	t.Run("rename", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		user := testutil.CreateTestUser(t, db)
		tag := testutil.CreateTestTag(t, db, user.ID)

		name := "renamed"
		updated, err := svc.UpdateTag(user.ID, tag.ID, &name, nil)
		testutil.AssertNoError(t, err)
		if updated.Name != "renamed" {
			t.Errorf("expected name renamed, got %s", updated.Name)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTagService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		tag := testutil.CreateTestTag(t, db, other.ID)

		name := "mine"
		_, err := svc.UpdateTag(user.ID, tag.ID, &name, nil)
		testutil.AssertAppError(t, err, "TAG_NOT_FOUND")
	})
}

func TestDeleteTag(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	tags := NewTagService(db)
	txns := NewTransactionService(db, NewAccountService(db))
	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID)
	tag := testutil.CreateTestTag(t, db, user.ID)

	tx, err := txns.CreateTransaction(user.ID, TransactionInput{
		AccountID: account.ID,
		Type:      models.TransactionTypeIncome,
		Amount:    100,
		TagIDs:    []string{tag.ID},
	})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, tags.DeleteTag(user.ID, tag.ID))

	got, err := txns.GetTransactionByID(user.ID, tx.ID)
	testutil.AssertNoError(t, err)
	if len(got.Tags) != 0 {
		t.Errorf("expected transaction to lose the tag, got %d tags", len(got.Tags))
	}
}
