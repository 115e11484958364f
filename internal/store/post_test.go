package store

import (
	"testing"

	"bimberek/internal/models"
)

func TestPostModerationTransitions(t *testing.T) {
	db := testDB(t)
	users := NewUserStore(db)
	posts := NewPostStore(db)

	author := "post-author@example.com"
	t.Cleanup(func() {
		cleanPosts(t, db, "test-post-moderation")
		cleanUsers(t, db, author)
	})

	u, err := users.Create(author, "post-author", "sekret123", models.RoleUser)
	if err != nil {
		t.Fatalf("create author: %v", err)
	}

	p, err := posts.Create(&models.Post{
		Title:    "Pierwszy zacier",
		Slug:     "test-post-moderation",
		BodyHTML: "<p>Jak zrobić zacier.</p>",
		Status:   models.ModerationPending,
		AuthorID: &u.ID,
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	transitioned, err := posts.SetStatus(p.ID, models.ModerationApproved)
	if err != nil {
		t.Fatalf("approve post: %v", err)
	}
	if !transitioned {
		t.Error("approving a pending post should transition it")
	}

	// A decision is terminal; a later reject must not flip it back.
	transitioned, err = posts.SetStatus(p.ID, models.ModerationRejected)
	if err != nil {
		t.Fatalf("re-moderate post: %v", err)
	}
	if transitioned {
		t.Error("re-moderating a decided post should not transition it")
	}

	reloaded, err := posts.FindByID(p.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload post: %v, %v", reloaded, err)
	}
	if reloaded.Status != models.ModerationApproved {
		t.Errorf("decided post flipped to %s", reloaded.Status)
	}
}
