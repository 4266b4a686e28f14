// Package navigation holds the portal's view paths and the role home table.
package navigation

// View paths served by the portal.
const (
	RootPath         = "/"
	LoginPath        = "/login"
	LogoutPath       = "/logout"
	UnauthorizedPath = "/unauthorized"
	ProfilePath      = "/profile"

	EVOwnerHomePath  = "/ev-owner/dashboard"
	BuyerHomePath    = "/buyer/dashboard"
	VerifierHomePath = "/cva/dashboard"
	AdminHomePath    = "/admin/dashboard"
)
