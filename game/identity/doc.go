// Package identity resolves the display name a connection starts with.
//
// Account management lives outside this server. When JWT_SECRET is set, the
// account service hands clients an HS256 token whose username claim becomes
// the connection's display name; without a secret every connection starts as
// Anonymous and may rename itself with set_username.
package identity
