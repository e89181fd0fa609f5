// Package main seeds an admin account from the command line:
//
//	createadmin -username ops -password secret
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/KATHANJAIN1311/creative-era-event/config"
	"github.com/KATHANJAIN1311/creative-era-event/internal/admin"
	"github.com/KATHANJAIN1311/creative-era-event/internal/models"
	"github.com/KATHANJAIN1311/creative-era-event/pkg/database"
	"github.com/KATHANJAIN1311/creative-era-event/pkg/utils"
)

func main() {
	username := flag.String("username", "", "admin username")
	password := flag.String("password", "", "admin password")
	role := flag.String("role", "admin", "admin role")
	flag.Parse()

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: createadmin -username <name> -password <pass> [-role admin]")
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	hash, err := utils.HashPassword(*password)
	if err != nil {
		logger.Fatal("hash password", zap.Error(err))
	}

	repo := admin.NewRepository(pool)
	a := &models.Admin{Username: *username, PasswordHash: hash, Role: *role}
	if err := repo.Create(ctx, a); err != nil {
		logger.Fatal("create admin", zap.Error(err))
	}
	logger.Info("admin created", zap.String("username", a.Username), zap.String("id", a.ID.String()))
}
