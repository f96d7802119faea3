package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mhsanaei/blogpanel/config"
	"github.com/mhsanaei/blogpanel/database"
	"github.com/mhsanaei/blogpanel/database/model"
	"github.com/mhsanaei/blogpanel/logger"
	"github.com/mhsanaei/blogpanel/web"
	"github.com/mhsanaei/blogpanel/web/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func initLogger() {
	level, err := logger.ParseLevel(config.GetLogLevel())
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(level)
}

// openDatabase loads the configuration and opens the migrated database.
func openDatabase() (*config.Config, *gorm.DB) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	initLogger()
	if err := database.InitDB(cfg.Database); err != nil {
		log.Fatal(err)
	}
	return cfg, database.GetDB()
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	cfg, db := openDatabase()
	defer func() {
		if err := database.CloseDB(); err != nil {
			logger.Warning("close database err:", err)
		}
		logger.CloseLogger()
	}()

	if err := database.SeedAdmin(db, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword, cfg.DefaultLocale()); err != nil {
		log.Fatal(err)
	}
	if err := web.InitLocalizer(cfg.Locales); err != nil {
		log.Fatal(err)
	}

	server := web.NewServer(cfg, db)
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, os.Interrupt)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer(cfg, db)
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func migrateDB() {
	_, _ = openDatabase()
	defer database.CloseDB()
	fmt.Println("migration done")
}

func createUser(username, email, password, role, locale string) error {
	cfg, db := openDatabase()
	defer database.CloseDB()

	if locale == "" {
		locale = cfg.DefaultLocale()
	}
	userService := service.UserService{}
	user, err := userService.CreateUser(context.Background(), database.NewUnitOfWork(db), username, email, password, model.Role(role), locale)
	if err != nil {
		return err
	}
	fmt.Printf("created user %s with id %d\n", user.Username, user.Id)
	return nil
}

func resetPassword(login, password string) error {
	_, db := openDatabase()
	defer database.CloseDB()

	userService := service.UserService{}
	if err := userService.ResetPassword(context.Background(), database.NewUnitOfWork(db), login, password); err != nil {
		return err
	}
	fmt.Println("password updated for", login)
	return nil
}

func newRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   config.GetName(),
		Short: "Administration panel for a small blog",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDB()
		},
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.GetName(), config.GetVersion())
		},
	}

	var userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage panel users",
	}

	var userCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")
			locale, _ := cmd.Flags().GetString("locale")
			return createUser(username, email, password, role, locale)
		},
	}
	userCreateCmd.Flags().String("username", "", "login name")
	userCreateCmd.Flags().String("email", "", "email address")
	userCreateCmd.Flags().String("password", "", "plain password, stored hashed")
	userCreateCmd.Flags().String("role", string(model.RoleUser), "role, one of ROLE_USER ROLE_MODERATOR ROLE_EDITOR ROLE_ADMIN ROLE_SUPER_ADMIN")
	userCreateCmd.Flags().String("locale", "", "preferred locale, defaults to the first configured one")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	var userPasswordCmd = &cobra.Command{
		Use:   "password",
		Short: "Reset the password of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			login, _ := cmd.Flags().GetString("login")
			password, _ := cmd.Flags().GetString("password")
			return resetPassword(login, password)
		},
	}
	userPasswordCmd.Flags().String("login", "", "username or email")
	userPasswordCmd.Flags().String("password", "", "new plain password")
	_ = userPasswordCmd.MarkFlagRequired("login")
	_ = userPasswordCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd, userPasswordCmd)
	rootCmd.AddCommand(runCmd, migrateCmd, versionCmd, userCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
