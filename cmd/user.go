package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/internal/app"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// userCmd 用户管理命令，用户正常由身份服务同步
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage gallery users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Register a user known to the identity service",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		role, _ := cmd.Flags().GetString("role")
		if err := runUserAdd(strings.TrimSpace(args[0]), role); err != nil {
			log.Fatalf("Add user failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)
	userAddCmd.Flags().String("role", models.RoleUser, "User role (user, admin)")
}

func runUserAdd(username, role string) error {
	if username == "" {
		return errors.New("username must not be empty")
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return fmt.Errorf("invalid role: %s (must be user or admin)", role)
	}

	cfg := loadConfig()
	container := app.NewContainer(cfg)
	if err := container.InitDatabase(); err != nil {
		return err
	}
	defer container.Close()
	InitDatabase(container)

	if existing, err := container.UsersRepo.GetByUsername(username); err == nil {
		return fmt.Errorf("user %q already exists with id %d", existing.Username, existing.ID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	user := &models.User{Username: username, Role: role}
	if err := container.UsersRepo.Create(user); err != nil {
		return err
	}

	fmt.Printf("User created: id=%d username=%s role=%s\n", user.ID, user.Username, user.Role)
	return nil
}
