// Command rbacctl bootstraps the RBAC store from the shell: seeding,
// assigning a role to a user by email and minting development tokens.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"go-rbac-admin/internal/model"
	"go-rbac-admin/internal/repository"
	"go-rbac-admin/internal/service"
	"go-rbac-admin/pkg/config"
	"go-rbac-admin/pkg/database"
	"go-rbac-admin/pkg/jwt"

	"github.com/spf13/pflag"
)

const usage = `usage: rbacctl <command> [flags]

commands:
  seed                             create the admin role and default permissions
  assign-role --email E --role R   give user E the role named R
  token --email E                  print a bearer token for user E
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	flags := pflag.NewFlagSet(cmd, pflag.ExitOnError)
	email := flags.String("email", "", "user email")
	roleName := flags.String("role", "", "role name")
	if err := flags.Parse(args); err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()
	db := database.ConnectDB(cfg.DSN(), cfg.IsProduction())
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	permissionRepo := repository.NewPermissionRepo(db)

	switch cmd {
	case "seed":
		if err := database.Seed(ctx, db, cfg.AdminEmail); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Println("Seeded admin role and default permissions")

	case "assign-role":
		if *email == "" || *roleName == "" {
			log.Fatal("assign-role needs --email and --role")
		}
		user, err := userRepo.FindByEmail(ctx, *email)
		if err != nil {
			log.Fatalf("User %s not found: %v", *email, err)
		}
		role, err := roleRepo.FindByName(ctx, *roleName)
		if err != nil {
			log.Fatalf("Role %s not found: %v", *roleName, err)
		}
		policy := service.NewPolicyService(db, userRepo, roleRepo, permissionRepo, service.PolicyOptions{})
		if _, err := policy.SetUserRole(ctx, &service.UserRoleRequest{UserID: user.ID, RoleID: role.ID}); err != nil {
			log.Fatalf("Assigning role failed: %v", err)
		}
		log.Printf("User %s now has role %s", *email, role.Name)

	case "token":
		if *email == "" {
			log.Fatal("token needs --email")
		}
		user, err := userRepo.FindByEmail(ctx, *email)
		if err != nil {
			log.Fatalf("User %s not found: %v", *email, err)
		}
		token, err := jwt.NewSigner(cfg.JWTSecret, cfg.TokenTTL).GenerateToken(user.ID, user.Email)
		if err != nil {
			log.Fatalf("Token generation failed: %v", err)
		}
		fmt.Println(token)
		if user.RoleName() == model.AdminRoleName {
			log.Println("Note: this user holds the admin role")
		}

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}
