package account

import (
    "context"
    "errors"
    "strings"
    "testing"
    "time"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/portfolio-blog/internal/account/accounttest"
    "github.com/iliyamo/portfolio-blog/internal/apperr"
    "github.com/iliyamo/portfolio-blog/internal/model"
    "github.com/iliyamo/portfolio-blog/internal/queue"
    "github.com/iliyamo/portfolio-blog/internal/session"
    "github.com/iliyamo/portfolio-blog/internal/token"
    "github.com/iliyamo/portfolio-blog/internal/utils"
)

type fixture struct {
    svc      *Service
    store    *accounttest.Store
    sessions session.Cache
    events   *accounttest.Events
    tokens   *token.Service
    now      time.Time
}

func newFixture(t *testing.T, sessions session.Cache) *fixture {
    t.Helper()
    f := &fixture{
        store:    accounttest.NewStore(),
        sessions: sessions,
        events:   &accounttest.Events{},
        now:      time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
    }
    clock := func() time.Time { return f.now }
    f.tokens = token.NewService(token.Config{AccessSecret: "a-secret", RefreshSecret: "r-secret"}).WithClock(clock)
    f.svc = NewService(Deps{
        Accounts:   f.store,
        Roles:      accounttest.Roles{},
        Tokens:     f.tokens,
        Sessions:   sessions,
        Events:     f.events,
        Log:        zerolog.Nop(),
        BcryptCost: bcrypt.MinCost,
        Now:        clock,
    })
    return f
}

func newLiveFixture(t *testing.T) *fixture {
    c := session.NewMemoryCache()
    t.Cleanup(c.Close)
    return newFixture(t, c)
}

func (f *fixture) register(t *testing.T, username, email, password string) *model.Account {
    t.Helper()
    a, err := f.svc.Register(context.Background(), RegisterInput{
        Username: username, Email: email, Password: password, FullName: username,
    })
    require.NoError(t, err)
    return a
}

func (f *fixture) admin(t *testing.T) *model.Account {
    t.Helper()
    id := f.store.Put(model.Account{Username: "root", Email: "root@example.com", FullName: "Root", Role: accounttest.AdminRole})
    a, _ := f.store.Snapshot(id)
    return &a
}

func TestRegister_StoresVerifiableHash(t *testing.T) {
    f := newLiveFixture(t)

    a := f.register(t, "alice", "Alice@Example.com", "pw123")

    stored, ok := f.store.Snapshot(a.ID)
    require.True(t, ok)
    assert.NotEqual(t, "pw123", stored.PasswordHash)
    assert.True(t, utils.VerifyPassword(stored.PasswordHash, "pw123"))
    assert.Equal(t, "alice@example.com", stored.Email)
    assert.Equal(t, model.RoleUser, stored.Role.Name)
    assert.Equal(t, []string{queue.EventRegistered}, f.events.Types())
}

func TestRegister_DuplicateEmailIsConflict(t *testing.T) {
    f := newLiveFixture(t)
    ctx := context.Background()

    _, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "pw123", FullName: "Alice A"})
    require.NoError(t, err)

    _, err = f.svc.Register(ctx, RegisterInput{Username: "alice2", Email: "alice@example.com", Password: "pw123", FullName: "Alice B"})
    assert.ErrorIs(t, err, apperr.ErrConflict)

    _, err = f.svc.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "pw123", FullName: "Alice C"})
    assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
    f := newLiveFixture(t)
    ctx := context.Background()

    _, err := f.svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", FullName: "Bob"})
    assert.ErrorIs(t, err, apperr.ErrValidation)

    unknown := uint8(9)
    _, err = f.svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "pw", FullName: "Bob", RoleID: &unknown})
    assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRegister_PasswordTooLongIsValidation(t *testing.T) {
    f := newLiveFixture(t)

    _, err := f.svc.Register(context.Background(), RegisterInput{
        Username: "bob", Email: "bob@example.com", Password: strings.Repeat("p", 80), FullName: "Bob",
    })
    assert.ErrorIs(t, err, apperr.ErrValidation)
    exists, _ := f.store.EmailExists(context.Background(), "bob@example.com")
    assert.False(t, exists)
}

func TestBlock_LongestAllowedDurationStaysInFuture(t *testing.T) {
    f := newLiveFixture(t)
    admin := f.admin(t)
    a := f.register(t, "bob", "bob@example.com", "pw123")
    ctx := context.Background()

    until, err := f.svc.Block(ctx, admin, a.ID, maxBlockHours)
    require.NoError(t, err)
    assert.True(t, until.After(f.now))

    stored, _ := f.store.Snapshot(a.ID)
    assert.ErrorIs(t, f.svc.EnforceBlock(ctx, &stored), apperr.ErrForbidden)
}

func TestRegister_ExplicitRole(t *testing.T) {
    f := newLiveFixture(t)
    adminID := accounttest.AdminRole.ID

    a, err := f.svc.Register(context.Background(), RegisterInput{
        Username: "boss", Email: "boss@example.com", Password: "pw", FullName: "Boss", RoleID: &adminID,
    })
    require.NoError(t, err)
    assert.True(t, a.IsAdmin())
}

func TestLogin_IssuesVerifiableTokensAndMirrorsRefresh(t *testing.T) {
    f := newLiveFixture(t)
    a := f.register(t, "alice", "alice@example.com", "pw123")

    sess, err := f.svc.Login(context.Background(), "alice@example.com", "pw123")
    require.NoError(t, err)

    id, err := f.tokens.VerifyAccess(sess.Access.Token)
    require.NoError(t, err)
    assert.Equal(t, a.ID, id)

    cached, found, err := f.sessions.Get(context.Background(), a.ID)
    require.NoError(t, err)
    assert.True(t, found)
    assert.Equal(t, sess.Refresh.Token, cached)
    assert.Equal(t, model.RoleUser, sess.Account.Role.Name)
}

func TestLogin_BadCredentials(t *testing.T) {
    f := newLiveFixture(t)
    f.register(t, "alice", "alice@example.com", "pw123")
    f.store.Put(model.Account{Username: "fed", Email: "fed@example.com", FederatedProvider: "github", FederatedSubject: "1"})

    for _, tc := range []struct{ email, password string }{
        {"alice@example.com", "wrong"},
        {"nobody@example.com", "pw123"},
        {"fed@example.com", ""},
    } {
        _, err := f.svc.Login(context.Background(), tc.email, tc.password)
        assert.ErrorIs(t, err, apperr.ErrUnauthorized, tc.email)
    }
}

func TestLogin_BlockedUntilFutureIsForbidden(t *testing.T) {
    f := newLiveFixture(t)
    a := f.register(t, "bob", "bob@example.com", "pw123")
    until := f.now.Add(time.Hour)
    require.NoError(t, f.store.SetBlock(context.Background(), a.ID, until))

    _, err := f.svc.Login(context.Background(), "bob@example.com", "pw123")

    require.ErrorIs(t, err, apperr.ErrForbidden)
    var blocked *apperr.BlockedError
    require.True(t, errors.As(err, &blocked))
    require.NotNil(t, blocked.Until)
    assert.Equal(t, until, *blocked.Until)
    _, found, _ := f.sessions.Get(context.Background(), a.ID)
    assert.False(t, found)
}

func TestLogin_ExpiredBlockIsLazilyCleared(t *testing.T) {
    f := newLiveFixture(t)
    a := f.register(t, "bob", "bob@example.com", "pw123")
    require.NoError(t, f.store.SetBlock(context.Background(), a.ID, f.now.Add(-time.Minute)))

    sess, err := f.svc.Login(context.Background(), "bob@example.com", "pw123")
    require.NoError(t, err)
    assert.False(t, sess.Account.IsBlocked)

    stored, _ := f.store.Snapshot(a.ID)
    assert.False(t, stored.IsBlocked)
    assert.Nil(t, stored.BlockedUntil)
}

func TestLogin_LazyUnblockWriteFailureIsSwallowed(t *testing.T) {
    f := newLiveFixture(t)
    a := f.register(t, "bob", "bob@example.com", "pw123")
    require.NoError(t, f.store.SetBlock(context.Background(), a.ID, f.now.Add(-time.Minute)))
    f.store.FailClearBlock = errors.New("db down")

    _, err := f.svc.Login(context.Background(), "bob@example.com", "pw123")
    require.NoError(t, err)
    assert.Equal(t, 1, f.store.ClearCalls)
}

func TestRefresh_StaleAfterLaterLogin(t *testing.T) {
    f := newLiveFixture(t)
    f.register(t, "alice", "alice@example.com", "pw123")
    ctx := context.Background()

    first, err := f.svc.Login(ctx, "alice@example.com", "pw123")
    require.NoError(t, err)
    second, err := f.svc.Login(ctx, "alice@example.com", "pw123")
    require.NoError(t, err)
    require.NotEqual(t, first.Refresh.Token, second.Refresh.Token)

    _, err = f.svc.Refresh(ctx, first.Refresh.Token)
    assert.ErrorIs(t, err, apperr.ErrUnauthorized)

    access, err := f.svc.Refresh(ctx, second.Refresh.Token)
    require.NoError(t, err)
    id, err := f.tokens.VerifyAccess(access.Token)
    require.NoError(t, err)
    assert.Equal(t, second.Account.ID, id)

    // the refresh token is not rotated and stays usable
    _, err = f.svc.Refresh(ctx, second.Refresh.Token)
    assert.NoError(t, err)
}

func TestRefresh_NullCacheTrustsSignature(t *testing.T) {
    f := newFixture(t, session.NullCache{})
    f.register(t, "alice", "alice@example.com", "pw123")
    ctx := context.Background()

    first, err := f.svc.Login(ctx, "alice@example.com", "pw123")
    require.NoError(t, err)
    _, err = f.svc.Login(ctx, "alice@example.com", "pw123")
    require.NoError(t, err)

    _, err = f.svc.Refresh(ctx, first.Refresh.Token)
    assert.NoError(t, err)
}

func TestRefresh_RejectsMissingInvalidAndExpired(t *testing.T) {
    f := newLiveFixture(t)
    f.register(t, "alice", "alice@example.com", "pw123")
    ctx := context.Background()
    sess, err := f.svc.Login(ctx, "alice@example.com", "pw123")
    require.NoError(t, err)

    _, err = f.svc.Refresh(ctx, "")
    assert.ErrorIs(t, err, apperr.ErrUnauthorized)

    _, err = f.svc.Refresh(ctx, sess.Access.Token) // wrong class
    assert.ErrorIs(t, err, apperr.ErrUnauthorized)

    f.now = f.now.Add(8 * 24 * time.Hour)
    _, err = f.svc.Refresh(ctx, sess.Refresh.Token)
    assert.ErrorIs(t, err, apperr.ErrUnauthorized)
    assert.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestLogout_IsIdempotentAndRevokesRefresh(t *testing.T) {
    f := newLiveFixture(t)
    a := f.register(t, "alice", "alice@example.com", "pw123")
    ctx := context.Background()
    sess, err := f.svc.Login(ctx, "alice@example.com", "pw123")
    require.NoError(t, err)

    f.svc.Logout(ctx, sess.Refresh.Token)
    f.svc.Logout(ctx, sess.Refresh.Token)
    f.svc.Logout(ctx, "")
    f.svc.Logout(ctx, "garbage")

    _, found, _ := f.sessions.Get(ctx, a.ID)
    assert.False(t, found)
    _, err = f.svc.Refresh(ctx, sess.Refresh.Token)
    assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestAuthenticate(t *testing.T) {
    f := newLiveFixture(t)
    a := f.register(t, "alice", "alice@example.com", "pw123")
    ctx := context.Background()
    sess, err := f.svc.Login(ctx, "alice@example.com", "pw123")
    require.NoError(t, err)

    got, err := f.svc.Authenticate(ctx, sess.Access.Token)
    require.NoError(t, err)
    assert.Equal(t, a.ID, got.ID)
    assert.Equal(t, model.RoleUser, got.Role.Name)

    _, err = f.svc.Authenticate(ctx, "")
    assert.ErrorIs(t, err, apperr.ErrUnauthorized)
    _, err = f.svc.Authenticate(ctx, sess.Refresh.Token)
    assert.ErrorIs(t, err, apperr.ErrUnauthorized)

    f.now = f.now.Add(16 * time.Minute)
    _, err = f.svc.Authenticate(ctx, sess.Access.Token)
    assert.ErrorIs(t, err, token.ErrTokenExpired)
    f.now = f.now.Add(-16 * time.Minute)

    require.NoError(t, f.store.Delete(ctx, a.ID))
    _, err = f.svc.Authenticate(ctx, sess.Access.Token)
    assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestAuthenticate_BlockStates(t *testing.T) {
    f := newLiveFixture(t)
    a := f.register(t, "bob", "bob@example.com", "pw123")
    ctx := context.Background()
    sess, err := f.svc.Login(ctx, "bob@example.com", "pw123")
    require.NoError(t, err)

    require.NoError(t, f.store.SetBlock(ctx, a.ID, f.now.Add(30*time.Minute)))
    _, err = f.svc.Authenticate(ctx, sess.Access.Token)
    assert.ErrorIs(t, err, apperr.ErrForbidden)

    f.now = f.now.Add(31 * time.Minute) // block expires, access token (15m) too
    fresh, err := f.tokens.IssueAccess(a.ID)
    require.NoError(t, err)
    got, err := f.svc.Authenticate(ctx, fresh.Token)
    require.NoError(t, err)
    assert.False(t, got.IsBlocked)
    assert.Contains(t, f.events.Types(), queue.EventUnblocked)

    // indefinite block
    id := f.store.Put(model.Account{Username: "eve", Email: "eve@example.com", IsBlocked: true})
    tok, err := f.tokens.IssueAccess(id)
    require.NoError(t, err)
    _, err = f.svc.Authenticate(ctx, tok.Token)
    var blocked *apperr.BlockedError
    require.True(t, errors.As(err, &blocked))
    assert.Nil(t, blocked.Until)
}

func TestBlock(t *testing.T) {
    f := newLiveFixture(t)
    admin := f.admin(t)
    a := f.register(t, "bob", "bob@example.com", "pw123")
    ctx := context.Background()
    sess, err := f.svc.Login(ctx, "bob@example.com", "pw123")
    require.NoError(t, err)

    _, err = f.svc.Block(ctx, admin, a.ID, 0)
    assert.ErrorIs(t, err, apperr.ErrValidation)
    _, err = f.svc.Block(ctx, admin, a.ID, -2)
    assert.ErrorIs(t, err, apperr.ErrValidation)
    _, err = f.svc.Block(ctx, admin, a.ID, 1e7)
    assert.ErrorIs(t, err, apperr.ErrValidation)
    untouched, _ := f.store.Snapshot(a.ID)
    assert.False(t, untouched.IsBlocked)
    _, err = f.svc.Block(ctx, admin, admin.ID, 1)
    assert.ErrorIs(t, err, apperr.ErrForbidden)
    _, err = f.svc.Block(ctx, admin, 999, 1)
    assert.ErrorIs(t, err, apperr.ErrNotFound)

    until, err := f.svc.Block(ctx, admin, a.ID, 2)
    require.NoError(t, err)
    assert.Equal(t, f.now.Add(2*time.Hour), until)

    stored, _ := f.store.Snapshot(a.ID)
    assert.True(t, stored.IsBlocked)
    _, found, _ := f.sessions.Get(ctx, a.ID)
    assert.False(t, found, "cached refresh token dropped")

    _, err = f.svc.Authenticate(ctx, sess.Access.Token)
    assert.ErrorIs(t, err, apperr.ErrForbidden)
    _, err = f.svc.Refresh(ctx, sess.Refresh.Token)
    assert.ErrorIs(t, err, apperr.ErrUnauthorized)
    assert.Contains(t, f.events.Types(), queue.EventBlocked)
}

func TestUnblock(t *testing.T) {
    f := newLiveFixture(t)
    admin := f.admin(t)
    a := f.register(t, "bob", "bob@example.com", "pw123")
    ctx := context.Background()

    assert.ErrorIs(t, f.svc.Unblock(ctx, admin, 999), apperr.ErrNotFound)

    _, err := f.svc.Block(ctx, admin, a.ID, 24)
    require.NoError(t, err)
    require.NoError(t, f.svc.Unblock(ctx, admin, a.ID))
    require.NoError(t, f.svc.Unblock(ctx, admin, a.ID))

    _, err = f.svc.Login(ctx, "bob@example.com", "pw123")
    assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
    f := newLiveFixture(t)
    admin := f.admin(t)
    a := f.register(t, "bob", "bob@example.com", "pw123")
    ctx := context.Background()
    _, err := f.svc.Login(ctx, "bob@example.com", "pw123")
    require.NoError(t, err)

    assert.ErrorIs(t, f.svc.Delete(ctx, admin, 0), apperr.ErrValidation)
    assert.ErrorIs(t, f.svc.Delete(ctx, admin, 999), apperr.ErrNotFound)

    require.NoError(t, f.svc.Delete(ctx, admin, a.ID))
    _, ok := f.store.Snapshot(a.ID)
    assert.False(t, ok)
    _, found, _ := f.sessions.Get(ctx, a.ID)
    assert.False(t, found)
    assert.Contains(t, f.events.Types(), queue.EventDeleted)
}

func TestProvisionFederated_ResolvesUsernameCollisions(t *testing.T) {
    f := newLiveFixture(t)
    f.store.Put(model.Account{Username: "alicesmith", Email: "a1@example.com"})
    f.store.Put(model.Account{Username: "alicesmith1", Email: "a2@example.com"})
    ctx := context.Background()
    id := Identity{Provider: "google", Subject: "g-123", Email: "Alice.Smith@gmail.com", DisplayName: "Alice Smith"}

    a, err := f.svc.ProvisionFederated(ctx, id)
    require.NoError(t, err)
    assert.Equal(t, "alicesmith2", a.Username)
    assert.Equal(t, "alice.smith@gmail.com", a.Email)
    assert.False(t, a.HasPassword())
    assert.Equal(t, model.RoleUser, a.Role.Name)

    again, err := f.svc.ProvisionFederated(ctx, id)
    require.NoError(t, err)
    assert.Equal(t, a.ID, again.ID)
}

func TestProvisionFederated_LinksExistingEmail(t *testing.T) {
    f := newLiveFixture(t)
    existing := f.register(t, "alice", "alice@example.com", "pw123")
    ctx := context.Background()

    a, err := f.svc.ProvisionFederated(ctx, Identity{Provider: "github", Subject: "77", Email: "alice@example.com", DisplayName: "Alice"})
    require.NoError(t, err)
    assert.Equal(t, existing.ID, a.ID)

    stored, _ := f.store.Snapshot(existing.ID)
    assert.Equal(t, "github", stored.FederatedProvider)
    assert.Equal(t, "77", stored.FederatedSubject)
    assert.True(t, stored.HasPassword(), "password login keeps working")
    assert.Contains(t, f.events.Types(), queue.EventFederatedLinked)
}

func TestProvisionFederated_KeepsFirstProviderLink(t *testing.T) {
    f := newLiveFixture(t)
    existing := f.register(t, "alice", "alice@example.com", "pw123")
    ctx := context.Background()

    _, err := f.svc.ProvisionFederated(ctx, Identity{Provider: "github", Subject: "77", Email: "alice@example.com"})
    require.NoError(t, err)

    for i := 0; i < 2; i++ {
        a, err := f.svc.ProvisionFederated(ctx, Identity{Provider: "google", Subject: "g-1", Email: "alice@example.com"})
        require.NoError(t, err)
        assert.Equal(t, existing.ID, a.ID)

        stored, _ := f.store.Snapshot(existing.ID)
        assert.Equal(t, "github", stored.FederatedProvider)
        assert.Equal(t, "77", stored.FederatedSubject)
    }

    again, err := f.svc.ProvisionFederated(ctx, Identity{Provider: "github", Subject: "77", Email: "alice@example.com"})
    require.NoError(t, err)
    assert.Equal(t, existing.ID, again.ID)
}

func TestProvisionFederated_Validation(t *testing.T) {
    f := newLiveFixture(t)
    ctx := context.Background()

    _, err := f.svc.ProvisionFederated(ctx, Identity{Provider: "github", Email: "x@example.com"})
    assert.ErrorIs(t, err, apperr.ErrValidation)
    _, err = f.svc.ProvisionFederated(ctx, Identity{Provider: "github", Subject: "1"})
    assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUsernameBase(t *testing.T) {
    assert.Equal(t, "johndoe", usernameBase(Identity{DisplayName: " John Doe "}))
    assert.Equal(t, "jdoe", usernameBase(Identity{Email: "JDoe@example.com"}))
    assert.Equal(t, "user", usernameBase(Identity{}))
}

func TestLoginFederated(t *testing.T) {
    f := newLiveFixture(t)
    ctx := context.Background()
    id := Identity{Provider: "github", Subject: "5", Email: "gh@example.com", DisplayName: "octo cat"}

    sess, err := f.svc.LoginFederated(ctx, id)
    require.NoError(t, err)
    assert.Equal(t, "octocat", sess.Account.Username)
    cached, found, _ := f.sessions.Get(ctx, sess.Account.ID)
    require.True(t, found)
    assert.Equal(t, sess.Refresh.Token, cached)

    require.NoError(t, f.store.SetBlock(ctx, sess.Account.ID, f.now.Add(time.Hour)))
    _, err = f.svc.LoginFederated(ctx, id)
    assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestChangePassword(t *testing.T) {
    f := newLiveFixture(t)
    a := f.register(t, "alice", "alice@example.com", "pw123")
    ctx := context.Background()

    assert.ErrorIs(t, f.svc.ChangePassword(ctx, a.ID, "pw123", "short"), apperr.ErrValidation)
    assert.ErrorIs(t, f.svc.ChangePassword(ctx, a.ID, "pw123", strings.Repeat("n", 73)), apperr.ErrValidation)
    assert.ErrorIs(t, f.svc.ChangePassword(ctx, a.ID, "wrong", "newpass1"), apperr.ErrUnauthorized)
    require.NoError(t, f.svc.ChangePassword(ctx, a.ID, "pw123", "newpass1"))

    _, err := f.svc.Login(ctx, "alice@example.com", "newpass1")
    assert.NoError(t, err)
    _, err = f.svc.Login(ctx, "alice@example.com", "pw123")
    assert.ErrorIs(t, err, apperr.ErrUnauthorized)

    // federated-only accounts set a first password without a current one
    fed := f.store.Put(model.Account{Username: "fed", Email: "fed@example.com", FederatedProvider: "google", FederatedSubject: "1"})
    require.NoError(t, f.svc.ChangePassword(ctx, fed, "", "firstpass"))
}

func TestUpdateProfileAndChangeRole(t *testing.T) {
    f := newLiveFixture(t)
    a := f.register(t, "alice", "alice@example.com", "pw123")
    ctx := context.Background()

    updated, err := f.svc.UpdateProfile(ctx, a.ID, "Alice Liddell", "555-0100")
    require.NoError(t, err)
    assert.Equal(t, "Alice Liddell", updated.FullName)
    assert.Equal(t, "555-0100", updated.Phone)

    _, err = f.svc.UpdateProfile(ctx, a.ID, "  ", "")
    assert.ErrorIs(t, err, apperr.ErrValidation)
    _, err = f.svc.Profile(ctx, 999)
    assert.ErrorIs(t, err, apperr.ErrNotFound)

    promoted, err := f.svc.ChangeRole(ctx, a.ID, model.RoleAdmin)
    require.NoError(t, err)
    assert.True(t, promoted.IsAdmin())

    _, err = f.svc.ChangeRole(ctx, a.ID, model.RoleName("ROOT"))
    assert.ErrorIs(t, err, apperr.ErrValidation)
}
