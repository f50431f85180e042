// xpdctl 是远征实时服务的命令行诊断工具。
//
// 用法:
//
//	xpdctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-s, --server   实时服务端地址 (默认: ws://127.0.0.1:8080/realtime)
//	-u, --user     以该用户身份连接（房间操作需要）
//	-c, --config   配置文件路径（.yaml/.json），命令行选项优先
//	-v, --verbose  输出调试日志
//
// 命令:
//
//	tail                  订阅并打印全部远征事件，直到中断
//	ping                  发送若干次延迟探测并打印往返耗时
//	join <expedition-id>  加入远征房间并打印该远征的事件
//
// 退出码:
//
//	0: 命令执行成功
//	1: 连接失败或命令执行失败
//	2: 参数错误（缺少参数、非法标识等）
//
// 示例:
//
//	xpdctl -s wss://api.example.com/realtime tail
//	xpdctl -u 7 join 42
//	xpdctl ping --count 5 --interval 2s
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xpdctl",
		Usage:   "远征实时服务诊断工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "实时服务端地址 (ws:// 或 wss://)",
				Value:   "ws://127.0.0.1:8080/realtime",
			},
			&cli.IntFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "以该用户身份连接（房间操作需要）",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（命令行选项优先）",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "输出调试日志",
			},
		},
		Commands:       createCommands(),
		DefaultCommand: "help",
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，
		// 由 run() 统一处理退出码映射，确保与文档退出码契约一致。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

func run() int {
	app := createApp()

	// Ctrl-C / SIGTERM 触发各命令的优雅退出
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}
