package identity

import (
	"context"
	"testing"

	"github.com/caelexhq/caelex-backend/internal/data/repos/testutil"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	"github.com/google/uuid"
)

func TestIdentityRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	userRepo := NewUserRepo(db, log)
	orgRepo := NewOrgRepo(db, log)
	memberRepo := NewOrgMembershipRepo(db, log)

	u := &types.User{
		ID:        uuid.New(),
		Email:     "founder@caelex.test",
		Password:  "hashed",
		FirstName: "Ada",
		LastName:  "Kranz",
	}
	if _, err := userRepo.Create(dbc, []*types.User{u}); err != nil {
		t.Fatalf("Create user: %v", err)
	}

	byEmail, err := userRepo.GetByEmail(dbc, "  Founder@caelex.test ")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail == nil || byEmail.ID != u.ID {
		t.Fatalf("GetByEmail: expected %v got %v", u.ID, byEmail)
	}
	if byEmail, err := userRepo.GetByEmail(dbc, "nobody@caelex.test"); err != nil || byEmail != nil {
		t.Fatalf("GetByEmail (missing): expected nil, err=%v got=%v", err, byEmail)
	}

	org := &types.Org{
		ID:          uuid.New(),
		Name:        "Orbita Systems",
		Slug:        "orbita-systems",
		CountryCode: "DE",
	}
	if _, err := orgRepo.Create(dbc, []*types.Org{org}); err != nil {
		t.Fatalf("Create org: %v", err)
	}

	bySlug, err := orgRepo.GetBySlug(dbc, "orbita-systems")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if bySlug == nil || bySlug.ID != org.ID {
		t.Fatalf("GetBySlug: expected %v got %v", org.ID, bySlug)
	}

	m := &types.OrgMembership{
		ID:     uuid.New(),
		OrgID:  org.ID,
		UserID: u.ID,
		Role:   types.OrgRoleOwner,
	}
	if _, err := memberRepo.Create(dbc, []*types.OrgMembership{m}); err != nil {
		t.Fatalf("Create membership: %v", err)
	}

	got, err := memberRepo.GetByOrgAndUser(dbc, org.ID, u.ID)
	if err != nil {
		t.Fatalf("GetByOrgAndUser: %v", err)
	}
	if got == nil || got.Role != types.OrgRoleOwner {
		t.Fatalf("GetByOrgAndUser: unexpected row %+v", got)
	}

	orgs, err := orgRepo.ListByUser(dbc, u.ID, 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(orgs) != 1 || orgs[0].ID != org.ID {
		t.Fatalf("ListByUser: expected [%v], got %+v", org.ID, orgs)
	}

	count, err := memberRepo.CountByOrg(dbc, org.ID)
	if err != nil {
		t.Fatalf("CountByOrg: %v", err)
	}
	if count != 1 {
		t.Fatalf("CountByOrg: expected 1, got %d", count)
	}

	if err := memberRepo.UpdateFields(dbc, m.ID, map[string]interface{}{"role": types.OrgRoleAdmin}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err = memberRepo.GetByOrgAndUser(dbc, org.ID, u.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByOrgAndUser (after update): err=%v got=%v", err, got)
	}
	if got.Role != types.OrgRoleAdmin {
		t.Fatalf("UpdateFields: role not updated, got %q", got.Role)
	}

	// A removed member disappears from org listings.
	if err := memberRepo.Delete(dbc, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, err := memberRepo.GetByOrgAndUser(dbc, org.ID, u.ID); err != nil || got != nil {
		t.Fatalf("GetByOrgAndUser (deleted): expected nil, err=%v got=%v", err, got)
	}
	orgs, err = orgRepo.ListByUser(dbc, u.ID, 10)
	if err != nil {
		t.Fatalf("ListByUser (after delete): %v", err)
	}
	if len(orgs) != 0 {
		t.Fatalf("ListByUser: expected no orgs after removal, got %+v", orgs)
	}
}
