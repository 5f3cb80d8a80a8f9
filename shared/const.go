package shared

const (
	AppName = "Wheelchair Racer"

	UserID    = "user_id"
	UserRole  = "user_role"
	SessionID = "session_id"

	RoleUser  = "user"
	RoleAdmin = "admin"

	PostsPerPage   = 10
	TopicsPerPage  = 20
	RepliesPerPage = 50

	MaxAvatarSize    = 2 * 1024 * 1024
	MaxPostImageSize = 5 * 1024 * 1024

	AvatarPrefix    = "avatars"
	PostImagePrefix = "post-images"
)

var BlogCategories = []string{
	"Training",
	"Equipment",
	"Nutrition",
	"Race Reports",
	"Beginner Tips",
	"Inspiration",
}
