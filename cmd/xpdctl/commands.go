package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xpedition/pkg/config/xconf"
	"github.com/omeyang/xpedition/pkg/observability/xlog"
	"github.com/omeyang/xpedition/pkg/realtime/xrt"
)

// usageError 表示参数错误，main 映射为退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createTailCommand(),
		createPingCommand(),
		createJoinCommand(),
	}
}

// runtimeEnv 一次命令执行的运行环境。
type runtimeEnv struct {
	log     *slog.Logger
	client  *xrt.Client
	cleanup func() error
}

func (e *runtimeEnv) close() {
	e.client.Close()
	_ = e.cleanup()
}

// setup 按全局选项装配日志与实时客户端。命令行选项优先于配置文件。
func setup(cmd *cli.Command, extra ...xrt.Option) (*runtimeEnv, error) {
	cfg := xconf.Default()
	if path := cmd.String("config"); path != "" {
		loaded, err := xconf.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	server := cmd.String("server")
	if !cmd.IsSet("server") && cfg.Realtime.URL != "" {
		server = cfg.Realtime.URL
	}

	logCfg := xlog.Config{Level: cfg.Log.Level, Format: "text"}
	if cmd.Bool("verbose") {
		logCfg.Level = "debug"
	}
	logger, cleanup, err := xlog.Build(logCfg)
	if err != nil {
		return nil, err
	}

	opts := []xrt.Option{
		xrt.WithLogger(logger),
		xrt.WithMaxReconnectAttempts(cfg.Realtime.MaxReconnects),
		xrt.WithReconnectDelay(cfg.Realtime.ReconnectDelay),
		xrt.WithProbeInterval(cfg.Realtime.ProbeInterval),
		xrt.WithHandshakeTimeout(cfg.Realtime.HandshakeTimeout),
	}
	if userID := cmd.Int("user"); userID > 0 {
		uid := int64(userID)
		opts = append(opts, xrt.WithIdentity(func() (int64, bool) { return uid, true }))
	}
	opts = append(opts, extra...)

	client, err := xrt.New(server, opts...)
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	return &runtimeEnv{log: logger, client: client, cleanup: cleanup}, nil
}

// createTailCommand 创建 tail 子命令。
func createTailCommand() *cli.Command {
	return &cli.Command{
		Name:  "tail",
		Usage: "订阅并打印全部远征事件，直到中断",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()
			return tailEvents(ctx, env, 0)
		},
	}
}

// createJoinCommand 创建 join 子命令。
func createJoinCommand() *cli.Command {
	return &cli.Command{
		Name:      "join",
		Usage:     "加入远征房间并打印该远征的事件",
		ArgsUsage: "<expedition-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return &usageError{msg: "join 需要一个 <expedition-id> 参数"}
			}
			expeditionID, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
			if err != nil || expeditionID <= 0 {
				return &usageError{msg: fmt.Sprintf("非法的远征标识 %q", cmd.Args().First())}
			}
			if cmd.Int("user") <= 0 {
				return &usageError{msg: "join 需要 --user 指定身份"}
			}

			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			// 成员意向在未连接时也会被记录，连接成功后自动发送
			env.client.JoinExpedition(expeditionID)
			return tailEvents(ctx, env, expeditionID)
		},
	}
}

// createPingCommand 创建 ping 子命令。
func createPingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "发送若干次延迟探测并打印往返耗时",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "探测次数",
				Value:   3,
			},
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "探测间隔",
				Value:   time.Second,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := setup(cmd, xrt.WithProbeInterval(cmd.Duration("interval")))
			if err != nil {
				return err
			}
			defer env.close()
			return pingProbes(ctx, env, cmd.Int("count"))
		},
	}
}

// tailEvents 连接并持续打印事件。filterID 非零时只打印该远征的事件。
// 中断信号（ctx 取消）正常退出；重连次数耗尽返回错误。
func tailEvents(ctx context.Context, env *runtimeEnv, filterID int64) error {
	events := make(chan xrt.Event, 256)
	forward := func(ev xrt.Event) {
		select {
		case events <- ev:
		default: // 打印跟不上时丢弃，诊断工具不反压连接
		}
	}
	for _, kind := range []xrt.Kind{
		xrt.KindExpeditionUpdate,
		xrt.KindExpeditionMetrics,
		xrt.KindConnected,
		xrt.KindDisconnected,
		xrt.KindReconnected,
		xrt.KindMaxReconnectAttemptsReached,
	} {
		env.client.Subscribe(kind, forward)
	}

	env.client.Connect()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-events:
				if _, ok := ev.(xrt.AttemptsExhausted); ok {
					return fmt.Errorf("连接失败: 自动重连次数耗尽")
				}
				printEvent(ev, filterID)
			}
		}
	})
	return g.Wait()
}

// pingProbes 连接后等待 count 次探测应答并打印统计。
func pingProbes(ctx context.Context, env *runtimeEnv, count int) error {
	pongs := make(chan xrt.Pong, 16)
	env.client.Subscribe(xrt.KindPong, func(ev xrt.Event) {
		select {
		case pongs <- ev.(xrt.Pong):
		default:
		}
	})
	failed := make(chan struct{}, 1)
	env.client.Subscribe(xrt.KindMaxReconnectAttemptsReached, func(xrt.Event) {
		select {
		case failed <- struct{}{}:
		default:
		}
	})

	env.client.Connect()

	var rtts []time.Duration
	for len(rtts) < count {
		select {
		case <-ctx.Done():
			return nil
		case <-failed:
			return fmt.Errorf("连接失败: 自动重连次数耗尽")
		case p := <-pongs:
			rtts = append(rtts, p.RTT)
			fmt.Printf("pong seq=%d rtt=%v\n", p.Seq, p.RTT)
		}
	}

	var sum, minRTT, maxRTT time.Duration
	for i, d := range rtts {
		sum += d
		if i == 0 || d < minRTT {
			minRTT = d
		}
		if d > maxRTT {
			maxRTT = d
		}
	}
	fmt.Printf("min/avg/max = %v/%v/%v\n", minRTT, sum/time.Duration(len(rtts)), maxRTT)
	return nil
}

// printEvent 按事件类型打印一行。filterID 非零时过滤其他远征。
func printEvent(ev xrt.Event, filterID int64) {
	matches := func(id int64) bool { return filterID == 0 || id == filterID }

	switch e := ev.(type) {
	case xrt.Connected:
		fmt.Printf("[%s] 已连接 transport=%s\n", timestamp(), e.TransportID)
	case xrt.Disconnected:
		if e.Err != nil {
			fmt.Printf("[%s] 连接断开: %v\n", timestamp(), e.Err)
		} else {
			fmt.Printf("[%s] 连接断开\n", timestamp())
		}
	case xrt.Reconnected:
		fmt.Printf("[%s] 重连成功（此前失败 %d 次）\n", timestamp(), e.Attempts)
	case xrt.ItemConsumed:
		if matches(e.ExpeditionID) {
			fmt.Printf("[%s] 物品消耗 expedition=%d product=%d user=%d quantity=%d\n",
				timestamp(), e.ExpeditionID, e.ProductID, e.UserID, e.Quantity)
		}
	case xrt.ExpeditionCompleted:
		if matches(e.ExpeditionID) {
			fmt.Printf("[%s] 远征完成 expedition=%d\n", timestamp(), e.ExpeditionID)
		}
	case xrt.DeadlineWarning:
		if matches(e.ExpeditionID) {
			fmt.Printf("[%s] 截止预警 expedition=%d remaining=%ds\n",
				timestamp(), e.ExpeditionID, e.RemainingSeconds)
		}
	case xrt.ExpeditionCreated:
		if matches(e.ExpeditionID) {
			fmt.Printf("[%s] 远征创建 expedition=%d owner=%d name=%q\n",
				timestamp(), e.ExpeditionID, e.OwnerID, e.Name)
		}
	case xrt.ExpeditionMetrics:
		if matches(e.ExpeditionID) {
			fmt.Printf("[%s] 远征统计 expedition=%d members=%d consumed=%d/%d\n",
				timestamp(), e.ExpeditionID, e.MemberCount, e.ItemsConsumed, e.ItemsTotal)
		}
	}
}

func timestamp() string {
	return time.Now().Format("15:04:05.000")
}
