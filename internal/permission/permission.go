// Package permission holds the capability checks command entries are guarded
// by. The registry only ever calls Allows; everything else here is a library
// of ready-made checks for plugins to pick from.
package permission

// User is the identity a permission check runs against. Transport adapters
// build it from their own notion of a message author.
type User struct {
	ID       string
	Username string
	Roles    []string
	Perms    int64 // guild permission bitmask, transport-defined
	Bot      bool
}

// Permission answers whether a user may run a command. Implementations must
// be pure queries and must not block.
type Permission interface {
	Allows(u User) bool
}

// Func adapts a plain function to Permission.
type Func func(User) bool

// Allows calls f.
func (f Func) Allows(u User) bool { return f(u) }

// Anyone allows every user.
var Anyone Permission = Func(func(User) bool { return true })

// Nobody denies every user. Useful for registering a command visible in
// listings before its handler is ready.
var Nobody Permission = Func(func(User) bool { return false })

// Humans allows every user that is not a bot account.
var Humans Permission = Func(func(u User) bool { return !u.Bot })

// UserIDs allows exactly the listed user IDs.
func UserIDs(ids ...string) Permission {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return Func(func(u User) bool {
		_, ok := set[u.ID]
		return ok
	})
}

// AnyRole allows users holding at least one of the listed role IDs.
func AnyRole(roleIDs ...string) Permission {
	set := make(map[string]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		set[id] = struct{}{}
	}
	return Func(func(u User) bool {
		for _, r := range u.Roles {
			if _, ok := set[r]; ok {
				return true
			}
		}
		return false
	})
}

// GuildPermission allows users whose permission bitmask contains at least one
// of the bits set in required.
func GuildPermission(required int64) Permission {
	return Func(func(u User) bool {
		return u.Perms&required != 0
	})
}

// AnyOf allows a user that any of the given checks allows.
func AnyOf(perms ...Permission) Permission {
	return Func(func(u User) bool {
		for _, p := range perms {
			if p.Allows(u) {
				return true
			}
		}
		return false
	})
}

// AllOf allows a user that every one of the given checks allows.
func AllOf(perms ...Permission) Permission {
	return Func(func(u User) bool {
		for _, p := range perms {
			if !p.Allows(u) {
				return false
			}
		}
		return true
	})
}

// Not inverts a check.
func Not(p Permission) Permission {
	return Func(func(u User) bool { return !p.Allows(u) })
}
