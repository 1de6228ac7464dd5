package session

import (
	"strconv"

	"beefsteak/internal/identity"
)

// Identity is the caller as established for one request.
// GroupHint is whatever the groupID cookie says and must not be used for authorization.
type Identity struct {
	UserID        uint
	Authenticated bool
	GroupHint     *uint
}

// Anonymous is the identity of a caller without valid cookies.
var Anonymous = Identity{}

// Owns reports whether the caller is the authenticated owner userID.
func (i Identity) Owns(userID uint) bool {
	return i.Authenticated && userID != 0 && i.UserID == userID
}

// ReadIdentity verifies the userID/userIdHash pair. A mismatch yields Anonymous.
func ReadIdentity(jar Jar, v *identity.Verifier) Identity {
	raw := jar.Cookie(CookieUserID)
	if !v.Verify(raw, jar.Cookie(CookieUserIDHash)) {
		return Anonymous
	}
	id, _ := identity.ParseID(raw)
	ident := Identity{UserID: id, Authenticated: true}
	if gid, ok := identity.ParseID(jar.Cookie(CookieGroupID)); ok {
		ident.GroupHint = &gid
	}
	return ident
}

// SignIn writes the identity cookies for userID.
func SignIn(jar Jar, v *identity.Verifier, userID uint, groupID *uint) {
	jar.SetCookie(CookieUserID, strconv.FormatUint(uint64(userID), 10))
	jar.SetCookie(CookieUserIDHash, v.Issue(userID))
	SetGroupHint(jar, groupID)
}

// SetGroupHint caches the user's group id on the client.
func SetGroupHint(jar Jar, groupID *uint) {
	if groupID == nil {
		jar.ClearCookie(CookieGroupID)
		return
	}
	jar.SetCookie(CookieGroupID, strconv.FormatUint(uint64(*groupID), 10))
}

// SignOut clears the identity cookies.
func SignOut(jar Jar) {
	jar.ClearCookie(CookieUserIDHash)
	jar.ClearCookie(CookieUserID)
	jar.ClearCookie(CookieGroupID)
}
