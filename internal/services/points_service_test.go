package services

import (
	"testing"
	"time"

	"kakeibo/internal/models"
	"kakeibo/internal/pagination"
	"kakeibo/internal/testutil"

	"gorm.io/gorm"
)

func createPointEntry(t *testing.T, db *gorm.DB, userID string, points int64, reason string, at time.Time) {
	t.Helper()
	entry := &models.PointEntry{
		UserID: userID,
		Points: points,
		Kind:   models.PointKindEarned,
		Reason: reason,
	}
	entry.CreatedAt = at
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create point entry: %v", err)
	}
}

func findChallenge(t *testing.T, challenges []Challenge, id string) Challenge {
	t.Helper()
	for _, c := range challenges {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("challenge %s not found", id)
	return Challenge{}
}

func TestAwardOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPointsService(db)
	user := testutil.CreateTestUser(t, db)

	since := time.Now().UTC().Add(-time.Hour)
	if !svc.AwardOnce(user.ID, 10, ReasonDailyLogin, "Daily login bonus", since) {
		t.Error("expected first award to be granted")
	}
	if svc.AwardOnce(user.ID, 10, ReasonDailyLogin, "Daily login bonus", since) {
		t.Error("expected second award to be skipped")
	}

	var count int64
	db.Model(&models.PointEntry{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 ledger entry, got %d", count)
	}
}

func TestGetPointsSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPointsService(db)
	user := testutil.CreateTestUser(t, db)

	svc.Award(user.ID, 700, ReasonBudgetSet, "Budget set")
	createPointEntry(t, db, user.ID, 100, ReasonDailyLogin, time.Now().UTC().AddDate(0, -2, 0))
	_, err := svc.Redeem(user.ID, "gift_card_500")
	testutil.AssertNoError(t, err)

	summary, err := svc.GetSummary(user.ID)
	testutil.AssertNoError(t, err)

	if summary.TotalEarned != 800 {
		t.Errorf("expected total earned 800, got %d", summary.TotalEarned)
	}
	if summary.TotalRedeemed != 500 {
		t.Errorf("expected total redeemed 500, got %d", summary.TotalRedeemed)
	}
	if summary.Balance != 300 {
		t.Errorf("expected balance 300, got %d", summary.Balance)
	}
	if summary.EarnedThisMonth != 700 {
		t.Errorf("expected 700 earned this month, got %d", summary.EarnedThisMonth)
	}
	if len(summary.Recent) != 3 {
		t.Errorf("expected 3 recent entries, got %d", len(summary.Recent))
	}
}

func TestGetPointsHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPointsService(db)
	user := testutil.CreateTestUser(t, db)

	now := time.Now().UTC()
	createPointEntry(t, db, user.ID, 10, ReasonDailyLogin, now.Add(-2*time.Hour))
	createPointEntry(t, db, user.ID, 100, ReasonBudgetSet, now.Add(-time.Hour))

	result, err := svc.GetHistory(user.ID, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if result.TotalItems != 2 {
		t.Fatalf("expected 2 entries, got %d", result.TotalItems)
	}
	if result.Data[0].Reason != ReasonBudgetSet {
		t.Error("expected newest entry first")
	}
}

func TestRedeem(t *testing.T) {
	t.Run("insufficient_points", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPointsService(db)
		user := testutil.CreateTestUser(t, db)
		svc.Award(user.ID, 100, ReasonBudgetSet, "Budget set")

		_, err := svc.Redeem(user.ID, "coupon")
		testutil.AssertAppError(t, err, "INSUFFICIENT_POINTS")
	})

	t.Run("unknown_reward", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPointsService(db)

		_, err := svc.Redeem("user", "yacht")
		testutil.AssertAppError(t, err, "REWARD_NOT_FOUND")
	})

	t.Run("premium_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPointsService(db)
		user := testutil.CreateTestUser(t, db)
		svc.Award(user.ID, 1000, ReasonBudgetSet, "Budget set")

		summary, err := svc.Redeem(user.ID, RewardPremiumMonth)
		testutil.AssertNoError(t, err)
		if summary.Balance != 0 {
			t.Errorf("expected balance 0, got %d", summary.Balance)
		}

		var reloaded models.User
		db.First(&reloaded, "id = ?", user.ID)
		if !reloaded.HasPremium(time.Now().AddDate(0, 0, 20)) {
			t.Error("expected premium to be active for the next month")
		}
		if reloaded.HasPremium(time.Now().AddDate(0, 2, 0)) {
			t.Error("expected premium to lapse after one month")
		}
	})

	t.Run("premium_month_extends_expiry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPointsService(db)
		user := testutil.CreateTestUser(t, db)
		until := time.Now().UTC().AddDate(0, 1, 0)
		db.Model(user).Update("premium_until", &until)
		svc.Award(user.ID, 1000, ReasonBudgetSet, "Budget set")

		_, err := svc.Redeem(user.ID, RewardPremiumMonth)
		testutil.AssertNoError(t, err)

		var reloaded models.User
		db.First(&reloaded, "id = ?", user.ID)
		if !reloaded.HasPremium(time.Now().AddDate(0, 1, 20)) {
			t.Error("expected premium to be extended from the existing expiry")
		}
	})
}

func TestListRewards(t *testing.T) {
	svc := NewPointsService(nil)
	rewards := svc.ListRewards()
	if len(rewards) != len(rewardCatalog) {
		t.Fatalf("expected %d rewards, got %d", len(rewardCatalog), len(rewards))
	}
	rewards[0].Points = 0
	if rewardCatalog[0].Points == 0 {
		t.Error("expected ListRewards to return a copy")
	}
}

func TestGetChallenges(t *testing.T) {
	t.Run("login_streak", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPointsService(db)
		user := testutil.CreateTestUser(t, db)

		now := time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			createPointEntry(t, db, user.ID, PointsDailyLogin, ReasonDailyLogin, now.AddDate(0, 0, -i))
		}
		// A gap breaks the streak.
		createPointEntry(t, db, user.ID, PointsDailyLogin, ReasonDailyLogin, now.AddDate(0, 0, -7))

		challenges, err := svc.GetChallenges(user.ID, now)
		testutil.AssertNoError(t, err)

		c := findChallenge(t, challenges, ChallengeLoginStreak)
		if c.Progress != 5 || c.Completed {
			t.Errorf("expected progress 5 and not completed, got %d (completed=%v)", c.Progress, c.Completed)
		}
	})

	t.Run("savings_master", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPointsService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		now := time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)
		for _, m := range []time.Month{time.January, time.February, time.March} {
			testutil.CreateTestTransactionOn(t, db, user.ID, account.ID, nil, models.TransactionTypeIncome, 300000, testutil.Date(2024, m, 25))
			testutil.CreateTestTransactionOn(t, db, user.ID, account.ID, nil, models.TransactionTypeExpense, 200000, testutil.Date(2024, m, 26))
		}

		challenges, err := svc.GetChallenges(user.ID, now)
		testutil.AssertNoError(t, err)

		c := findChallenge(t, challenges, ChallengeSavingsMaster)
		if !c.Completed {
			t.Errorf("expected savings challenge completed, progress %d", c.Progress)
		}
	})

	t.Run("budget_master", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPointsService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		now := time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)
		testutil.CreateTestBudgetInRange(t, db, user.ID, 10000, testutil.Date(2024, 4, 1), testutil.Date(2024, 4, 30))
		testutil.CreateTestTransactionOn(t, db, user.ID, account.ID, nil, models.TransactionTypeExpense, 4000, testutil.Date(2024, 4, 10))

		challenges, err := svc.GetChallenges(user.ID, now)
		testutil.AssertNoError(t, err)
		if c := findChallenge(t, challenges, ChallengeBudgetMaster); !c.Completed {
			t.Error("expected budget challenge completed while within limit")
		}

		testutil.CreateTestTransactionOn(t, db, user.ID, account.ID, nil, models.TransactionTypeExpense, 7000, testutil.Date(2024, 4, 12))
		challenges, err = svc.GetChallenges(user.ID, now)
		testutil.AssertNoError(t, err)
		if c := findChallenge(t, challenges, ChallengeBudgetMaster); c.Completed {
			t.Error("expected budget challenge incomplete once over budget")
		}
	})
}

func TestClaimChallenge(t *testing.T) {
	t.Run("claim_once_per_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPointsService(db)
		user := testutil.CreateTestUser(t, db)

		now := time.Now().UTC()
		for i := 0; i < 7; i++ {
			createPointEntry(t, db, user.ID, PointsDailyLogin, ReasonDailyLogin, now.AddDate(0, 0, -i))
		}

		c, err := svc.ClaimChallenge(user.ID, ChallengeLoginStreak, now)
		testutil.AssertNoError(t, err)
		if !c.Claimed {
			t.Error("expected challenge to be marked claimed")
		}

		var count int64
		db.Model(&models.PointEntry{}).Where("user_id = ? AND reason = ?", user.ID, "challenge:"+ChallengeLoginStreak).Count(&count)
		if count != 1 {
			t.Errorf("expected one challenge entry, got %d", count)
		}

		_, err = svc.ClaimChallenge(user.ID, ChallengeLoginStreak, now)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("not_completed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPointsService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.ClaimChallenge(user.ID, ChallengeDataEntry, time.Now())
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPointsService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.ClaimChallenge(user.ID, "marathon", time.Now())
		testutil.AssertAppError(t, err, "NOT_FOUND")
	})
}
