package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/seed"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var guests int
	var maxAffinity int
	var owner string
	var file string
	var name string
	var out string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机策划, 2: 插入随机关系表, 3: 导入 xlsx 关系表, 4: 生成随机 xlsx 关系表)")
	flag.IntVar(&n, "n", 5, "要插入或生成的记录数量")
	flag.IntVar(&guests, "guests", 64, "随机关系表的宾客数量")
	flag.IntVar(&maxAffinity, "max-affinity", 10, "随机关系分数的最大值")
	flag.StringVar(&owner, "owner", "admin", "关系表所属用户的用户名")
	flag.StringVar(&file, "file", "", "要导入的 xlsx 文件")
	flag.StringVar(&name, "name", "", "导入后的关系表名称，默认使用文件名")
	flag.StringVar(&out, "out", ".", "生成的 xlsx 文件所在目录")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 生成文件不需要数据库
	if op == 4 {
		paths, err := seed.WriteWorkbooks(out, n, guests, maxAffinity)
		if err != nil {
			logger.Error("无法生成关系表文件", "error", err)
			os.Exit(1)
		}
		logger.Info("生成关系表文件成功", "count", len(paths), "dir", out)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		logger.Error("未指定操作")
	case 1:
		if n <= 0 {
			logger.Error("请输入合法的用户数量")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
			if err != nil {
				logger.Error("无法生成随机用户", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateUser(user); err != nil {
				logger.Error("无法插入用户", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		logger.Info("插入用户成功", slog.Int("count", cnt))
	case 2:
		if n <= 0 || guests <= 0 {
			logger.Error("请输入合法的关系表数量和宾客数量")
			return
		}

		cnt, err := seed.InsertRandomSheets(repo, owner, n, guests, maxAffinity)
		if err != nil {
			logger.Error("无法插入关系表", slog.String("error", err.Error()))
			return
		}
		logger.Info("插入关系表成功", slog.Int("count", cnt))
	case 3:
		if file == "" {
			logger.Error("请指定要导入的文件")
			return
		}

		if _, err := seed.ImportWorkbook(repo, file, name, owner); err != nil {
			logger.Error("无法导入关系表", slog.String("error", err.Error()))
			return
		}
	default:
		logger.Error("指定的操作非法")
	}
}
