package auth

// Meta-permissions guarding the permission operations themselves.
const (
	PermPermissionAdd    = "permission.add"
	PermPermissionRemove = "permission.remove"
	PermPermissionSee    = "permission.see"
)

// BuiltinPermissions is the full catalogue ensured at startup. Names are
// the stable identity; ids are generated on first insert and never
// rotated afterwards.
var BuiltinPermissions = []string{
	"organisation.all",
	"organisation.see",
	"organisation.edit",
	"organisation.create",
	"organisation.members.all",
	"organisation.members.add",
	"organisation.members.remove",
	"organisation.members.edit",
	"organisation.events.see",
	"profile.edit",
	"profile.see",
	"profile.reset_password",
	"license.create",
	"client.download",
	"project.see",
	"project.edit",
	"project.create",
	PermPermissionAdd,
	PermPermissionRemove,
	PermPermissionSee,
}
