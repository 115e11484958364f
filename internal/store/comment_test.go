package store

import (
	"testing"

	"github.com/shopspring/decimal"

	"bimberek/internal/models"
)

func TestCommentModerationAndVotes(t *testing.T) {
	db := testDB(t)
	users := NewUserStore(db)
	products := NewProductStore(db)
	comments := NewCommentStore(db)

	author := "comment-author@example.com"
	voter := "comment-voter@example.com"
	t.Cleanup(func() {
		cleanUsers(t, db, author, voter)
		cleanProducts(t, db, "test-comment-product")
	})

	ua, err := users.Create(author, "comment-author", "sekret123", models.RoleUser)
	if err != nil {
		t.Fatalf("create author: %v", err)
	}
	uv, err := users.Create(voter, "comment-voter", "sekret123", models.RoleUser)
	if err != nil {
		t.Fatalf("create voter: %v", err)
	}
	p, err := products.Create(&models.Product{
		Name: "Kadź", Slug: "test-comment-product", Price: decimal.RequireFromString("120.00"),
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	c, err := comments.Create(&models.Comment{
		Content:   "Solidna, polecam.",
		UserID:    ua.ID,
		ProductID: &p.ID,
	})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if c.Status != models.ModerationPending {
		t.Errorf("new comment should be pending, got %s", c.Status)
	}

	// Pending comments are invisible on the product page.
	visible, err := comments.ListApprovedForProduct(p.ID)
	if err != nil {
		t.Fatalf("list approved: %v", err)
	}
	if len(visible) != 0 {
		t.Errorf("pending comment leaked into the approved list")
	}

	transitioned, err := comments.SetStatus(c.ID, models.ModerationApproved)
	if err != nil {
		t.Fatalf("approve comment: %v", err)
	}
	if !transitioned {
		t.Error("approving a pending comment should transition it")
	}
	visible, err = comments.ListApprovedForProduct(p.ID)
	if err != nil || len(visible) != 1 {
		t.Fatalf("approved comment missing: %v, %d", err, len(visible))
	}

	// Moderation decisions are terminal; a second decision is a no-op.
	transitioned, err = comments.SetStatus(c.ID, models.ModerationRejected)
	if err != nil {
		t.Fatalf("re-moderate comment: %v", err)
	}
	if transitioned {
		t.Error("re-moderating a decided comment should not transition it")
	}
	reloaded, err := comments.FindByID(c.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload comment: %v, %v", reloaded, err)
	}
	if reloaded.Status != models.ModerationApproved {
		t.Errorf("decided comment flipped to %s", reloaded.Status)
	}

	// Re-voting replaces the previous vote instead of stacking.
	if err := comments.Vote(c.ID, uv.ID, 1); err != nil {
		t.Fatalf("vote up: %v", err)
	}
	if err := comments.Vote(c.ID, uv.ID, -1); err != nil {
		t.Fatalf("vote down: %v", err)
	}
	reloaded, err = comments.FindByID(c.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload comment: %v, %v", reloaded, err)
	}
	if reloaded.Score != -1 {
		t.Errorf("expected score -1 after re-vote, got %d", reloaded.Score)
	}

	if err := comments.Unvote(c.ID, uv.ID); err != nil {
		t.Fatalf("unvote: %v", err)
	}
	reloaded, err = comments.FindByID(c.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload comment: %v, %v", reloaded, err)
	}
	if reloaded.Score != 0 {
		t.Errorf("expected score 0 after unvote, got %d", reloaded.Score)
	}
}

func TestCommentVisibilityIncludesOwnPending(t *testing.T) {
	db := testDB(t)
	users := NewUserStore(db)
	products := NewProductStore(db)
	comments := NewCommentStore(db)

	author := "visibility-author@example.com"
	reader := "visibility-reader@example.com"
	t.Cleanup(func() {
		cleanUsers(t, db, author, reader)
		cleanProducts(t, db, "test-visibility-product")
	})

	ua, err := users.Create(author, "visibility-author", "sekret123", models.RoleUser)
	if err != nil {
		t.Fatalf("create author: %v", err)
	}
	ur, err := users.Create(reader, "visibility-reader", "sekret123", models.RoleUser)
	if err != nil {
		t.Fatalf("create reader: %v", err)
	}
	p, err := products.Create(&models.Product{
		Name: "Refraktometr", Slug: "test-visibility-product", Price: decimal.RequireFromString("89.00"),
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	pending, err := comments.Create(&models.Comment{
		Content:   "Czeka na moderację.",
		UserID:    ua.ID,
		ProductID: &p.ID,
	})
	if err != nil {
		t.Fatalf("create pending comment: %v", err)
	}
	approved, err := comments.Create(&models.Comment{
		Content:   "Już zatwierdzony.",
		UserID:    ur.ID,
		ProductID: &p.ID,
	})
	if err != nil {
		t.Fatalf("create approved comment: %v", err)
	}
	if _, err := comments.SetStatus(approved.ID, models.ModerationApproved); err != nil {
		t.Fatalf("approve comment: %v", err)
	}

	// The author sees their own pending comment next to approved ones.
	own, err := comments.ListVisibleForProduct(p.ID, &ua.ID)
	if err != nil {
		t.Fatalf("list for author: %v", err)
	}
	if len(own) != 2 {
		t.Fatalf("author should see 2 comments, got %d", len(own))
	}

	// Other signed-in users only see approved comments.
	others, err := comments.ListVisibleForProduct(p.ID, &ur.ID)
	if err != nil {
		t.Fatalf("list for reader: %v", err)
	}
	if len(others) != 1 || others[0].ID != approved.ID {
		t.Fatalf("reader should see only the approved comment, got %d", len(others))
	}

	// Anonymous visitors too.
	anon, err := comments.ListVisibleForProduct(p.ID, nil)
	if err != nil {
		t.Fatalf("list for anonymous: %v", err)
	}
	if len(anon) != 1 {
		t.Fatalf("anonymous should see only the approved comment, got %d", len(anon))
	}
	for _, c := range append(others, anon...) {
		if c.ID == pending.ID {
			t.Error("pending comment leaked to a foreign viewer")
		}
	}
}

func TestCommentVoteRejectsBadValue(t *testing.T) {
	db := testDB(t)
	comments := NewCommentStore(db)

	if err := comments.Vote(models.Comment{}.ID, models.User{}.ID, 2); err == nil {
		t.Fatal("expected an error for a vote value other than 1 or -1")
	}
}
