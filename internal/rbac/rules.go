package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"quiz:list-own",
		"quiz:attempt",
		"quiz:result-own",
		"assessment:list-own",
		"assessment:submit",
		"attendance:mark",
		"attendance:view-own",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
