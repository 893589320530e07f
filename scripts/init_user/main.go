package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/athletetrack/internal/config"
	"github.com/athletetrack/internal/db"
)

func main() {
	username := flag.String("username", "coach", "username to create")
	password := flag.String("password", "coach1234", "password for the new user")
	sport := flag.String("sport", "basketball", "primary sport")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("读取配置失败:", err)
	}

	// 初始化数据库
	if err := db.Init(db.Options{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN, Path: cfg.Database.Path}); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	if err := db.EnsureUser(*username, *password, *sport); err != nil {
		log.Fatal("创建用户失败:", err)
	}

	fmt.Println("用户已就绪")
	fmt.Println("用户名:", *username)
}
