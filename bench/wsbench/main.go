package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/schollz/progressbar/v3"
)

// Config 压测配置
type Config struct {
	Target       string        // WebSocket URL
	Conns        int           // 总连接数
	Topics       string        // 逗号分隔的订阅主题（教师工号或 all）
	Duration     time.Duration // 压测持续时间
	Ramp         time.Duration // 爬坡时间
	PingInterval time.Duration // 心跳间隔
	Output       string        // 输出格式：text, json
	Verbose      bool          // 详细输出
}

// Stats 统计数据
type Stats struct {
	mu sync.Mutex

	TotalAttempts int64 `json:"total_attempts"`
	SuccessConns  int64 `json:"success_conns"`
	FailedConns   int64 `json:"failed_conns"`
	CurrentConns  int64 `json:"current_conns"`
	Disconnects   int64 `json:"disconnects"`

	// 连接建立延迟（纳秒）
	ConnLatencies []int64 `json:"-"`

	SubscribeAcks  int64 `json:"subscribe_acks"`
	StatusEvents   int64 `json:"status_events"`
	PingsSent      int64 `json:"pings_sent"`
	PongsReceived  int64 `json:"pongs_received"`
	UnknownPayload int64 `json:"unknown_payload"`

	Errors map[string]int64 `json:"errors"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// LatencyStats 延迟统计
type LatencyStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	StdDev float64 `json:"std_dev"`
}

// Result 压测结果
type Result struct {
	Config        Config       `json:"config"`
	TotalAttempts int64        `json:"total_attempts"`
	SuccessConns  int64        `json:"success_conns"`
	FailedConns   int64        `json:"failed_conns"`
	SuccessRate   float64      `json:"success_rate_percent"`
	Disconnects   int64        `json:"disconnects"`
	FinalConns    int64        `json:"final_conns"`
	ConnLatency   LatencyStats `json:"conn_latency_ms"`

	SubscribeAcks int64   `json:"subscribe_acks"`
	StatusEvents  int64   `json:"status_events"`
	EventsPerSec  float64 `json:"events_per_sec"`
	PingsSent     int64   `json:"pings_sent"`
	PongsReceived int64   `json:"pongs_received"`
	PongRate      float64 `json:"pong_rate_percent"`

	Errors     map[string]int64 `json:"errors"`
	ActualTime float64          `json:"actual_time_seconds"`
}

// wsEnvelope 和服务端的消息信封保持一致
type wsEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	ID   string          `json:"id,omitempty"`
}

func main() {
	cfg := parseFlags()

	fmt.Println("=== wsbench - 状态订阅压测工具 ===")
	fmt.Printf("目标: %s\n", cfg.Target)
	fmt.Printf("连接数: %d\n", cfg.Conns)
	fmt.Printf("订阅主题: %s\n", cfg.Topics)
	fmt.Printf("持续时间: %s\n", cfg.Duration)
	fmt.Printf("爬坡时间: %s\n", cfg.Ramp)
	fmt.Println()

	stats := &Stats{
		Errors:    make(map[string]int64),
		StartTime: time.Now(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n收到中断信号，正在关闭...")
		cancel()
	}()

	runBench(ctx, cfg, stats)
	stats.EndTime = time.Now()

	result := generateResult(cfg, stats)
	if cfg.Output == "json" {
		outputJSON(result)
	} else {
		outputText(result)
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.Target, "target", "ws://localhost:8080/ws", "WebSocket URL")
	flag.IntVar(&cfg.Conns, "conns", 1000, "总连接数")
	flag.StringVar(&cfg.Topics, "topics", "all", "逗号分隔的订阅主题（教师工号或 all）")
	flag.DurationVar(&cfg.Duration, "duration", 5*time.Minute, "压测持续时间")
	flag.DurationVar(&cfg.Ramp, "ramp", 30*time.Second, "爬坡时间")
	flag.DurationVar(&cfg.PingInterval, "ping-interval", 30*time.Second, "心跳间隔")
	flag.StringVar(&cfg.Output, "output", "text", "输出格式: text, json")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "详细输出")

	flag.Parse()
	return cfg
}

func runBench(ctx context.Context, cfg Config, stats *Stats) {
	connsPerSecond := float64(cfg.Conns) / cfg.Ramp.Seconds()
	if connsPerSecond < 1 {
		connsPerSecond = 1
	}
	fmt.Printf("爬坡速率: %.1f 连接/秒\n\n", connsPerSecond)

	bar := progressbar.NewOptions(cfg.Conns,
		progressbar.OptionSetDescription("建立连接"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("conn"),
	)

	ticker := time.NewTicker(time.Duration(float64(time.Second) / connsPerSecond))
	defer ticker.Stop()

	var wg sync.WaitGroup
	topics := splitTopics(cfg.Topics)

	connID := 0
	for connID < cfg.Conns {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-ticker.C:
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				defer bar.Add(1)
				runConnection(ctx, id, cfg, topics, stats)
			}(connID)
			connID++
		}
	}

	reportTicker := time.NewTicker(10 * time.Second)
	defer reportTicker.Stop()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			<-done
			return
		case <-done:
			return
		case <-reportTicker.C:
			printProgress(stats)
		}
	}
}

func splitTopics(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// runConnection 建连 -> 逐主题订阅 -> 收事件直到超时
func runConnection(ctx context.Context, id int, cfg Config, topics []string, stats *Stats) {
	atomic.AddInt64(&stats.TotalAttempts, 1)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
	}

	start := time.Now()
	conn, _, err := dialer.DialContext(ctx, cfg.Target, nil)
	if err != nil {
		atomic.AddInt64(&stats.FailedConns, 1)
		recordError(stats, err)
		if cfg.Verbose {
			fmt.Printf("连接 %d 失败: %v\n", id, err)
		}
		return
	}
	defer conn.Close()

	latency := time.Since(start).Nanoseconds()
	stats.mu.Lock()
	stats.ConnLatencies = append(stats.ConnLatencies, latency)
	stats.mu.Unlock()

	atomic.AddInt64(&stats.SuccessConns, 1)
	atomic.AddInt64(&stats.CurrentConns, 1)
	defer atomic.AddInt64(&stats.CurrentConns, -1)

	var writeMu sync.Mutex
	send := func(env wsEnvelope) error {
		data, err := json.Marshal(env)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	for i, topic := range topics {
		payload, _ := json.Marshal(map[string]string{"topic": topic})
		if err := send(wsEnvelope{Type: "subscribe", Data: payload, ID: fmt.Sprintf("sub-%d-%d", id, i)}); err != nil {
			recordError(stats, err)
			return
		}
	}

	pingTicker := time.NewTicker(cfg.PingInterval)
	defer pingTicker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-pingTicker.C:
				if err := send(wsEnvelope{Type: "ping", ID: fmt.Sprintf("ping-%d", id)}); err != nil {
					return
				}
				atomic.AddInt64(&stats.PingsSent, 1)
			}
		}
	}()

	deadline := time.Now().Add(cfg.Duration)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if time.Now().After(deadline) {
			return
		}

		conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				atomic.AddInt64(&stats.Disconnects, 1)
			}
			return
		}

		var env wsEnvelope
		if json.Unmarshal(msg, &env) != nil {
			atomic.AddInt64(&stats.UnknownPayload, 1)
			continue
		}
		switch env.Type {
		case "subscribed":
			atomic.AddInt64(&stats.SubscribeAcks, 1)
		case "faculty_status_update":
			atomic.AddInt64(&stats.StatusEvents, 1)
		case "pong":
			atomic.AddInt64(&stats.PongsReceived, 1)
		default:
			atomic.AddInt64(&stats.UnknownPayload, 1)
		}
	}
}

func recordError(stats *Stats, err error) {
	errStr := err.Error()
	if len(errStr) > 50 {
		errStr = errStr[:50]
	}
	stats.mu.Lock()
	stats.Errors[errStr]++
	stats.mu.Unlock()
}

func printProgress(stats *Stats) {
	elapsed := time.Since(stats.StartTime)
	fmt.Printf("[%s] 当前连接: %d | 成功: %d | 失败: %d | 事件: %d | Ping/Pong: %d/%d\n",
		elapsed.Round(time.Second),
		atomic.LoadInt64(&stats.CurrentConns),
		atomic.LoadInt64(&stats.SuccessConns),
		atomic.LoadInt64(&stats.FailedConns),
		atomic.LoadInt64(&stats.StatusEvents),
		atomic.LoadInt64(&stats.PingsSent),
		atomic.LoadInt64(&stats.PongsReceived))
}

func generateResult(cfg Config, stats *Stats) Result {
	result := Result{
		Config:        cfg,
		TotalAttempts: stats.TotalAttempts,
		SuccessConns:  stats.SuccessConns,
		FailedConns:   stats.FailedConns,
		Disconnects:   stats.Disconnects,
		FinalConns:    stats.CurrentConns,
		SubscribeAcks: stats.SubscribeAcks,
		StatusEvents:  stats.StatusEvents,
		PingsSent:     stats.PingsSent,
		PongsReceived: stats.PongsReceived,
		Errors:        stats.Errors,
		ActualTime:    stats.EndTime.Sub(stats.StartTime).Seconds(),
	}

	if stats.TotalAttempts > 0 {
		result.SuccessRate = float64(stats.SuccessConns) / float64(stats.TotalAttempts) * 100
	}
	if stats.PingsSent > 0 {
		result.PongRate = float64(stats.PongsReceived) / float64(stats.PingsSent) * 100
	}
	if result.ActualTime > 0 {
		result.EventsPerSec = float64(stats.StatusEvents) / result.ActualTime
	}
	result.ConnLatency = calculateLatencyStats(stats.ConnLatencies)

	return result
}

func calculateLatencyStats(latencies []int64) LatencyStats {
	if len(latencies) == 0 {
		return LatencyStats{}
	}

	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	toMs := func(ns int64) float64 { return float64(ns) / 1e6 }

	var sum int64
	for _, v := range sorted {
		sum += v
	}
	avg := float64(sum) / float64(len(sorted))

	var variance float64
	for _, v := range sorted {
		diff := float64(v) - avg
		variance += diff * diff
	}
	variance /= float64(len(sorted))

	return LatencyStats{
		Min:    toMs(sorted[0]),
		Max:    toMs(sorted[len(sorted)-1]),
		Avg:    toMs(int64(avg)),
		P50:    toMs(sorted[len(sorted)*50/100]),
		P95:    toMs(sorted[len(sorted)*95/100]),
		P99:    toMs(sorted[len(sorted)*99/100]),
		StdDev: toMs(int64(math.Sqrt(variance))),
	}
}

func outputJSON(result Result) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "JSON 编码错误: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func outputText(result Result) {
	fmt.Println()
	fmt.Println("==================== 压测结果 ====================")
	fmt.Println()
	fmt.Println("--- 连接统计 ---")
	fmt.Printf("尝试连接数:     %d\n", result.TotalAttempts)
	fmt.Printf("成功连接数:     %d\n", result.SuccessConns)
	fmt.Printf("失败连接数:     %d\n", result.FailedConns)
	fmt.Printf("连接成功率:     %.2f%%\n", result.SuccessRate)
	fmt.Printf("断开连接数:     %d\n", result.Disconnects)
	fmt.Println()

	fmt.Println("--- 连接延迟 (ms) ---")
	fmt.Printf("Min:    %.2f\n", result.ConnLatency.Min)
	fmt.Printf("Max:    %.2f\n", result.ConnLatency.Max)
	fmt.Printf("Avg:    %.2f\n", result.ConnLatency.Avg)
	fmt.Printf("P50:    %.2f\n", result.ConnLatency.P50)
	fmt.Printf("P95:    %.2f\n", result.ConnLatency.P95)
	fmt.Printf("P99:    %.2f\n", result.ConnLatency.P99)
	fmt.Println()

	fmt.Println("--- 订阅与事件 ---")
	fmt.Printf("订阅 ACK 数:    %d\n", result.SubscribeAcks)
	fmt.Printf("状态事件数:     %d\n", result.StatusEvents)
	fmt.Printf("事件速率:       %.1f 条/秒\n", result.EventsPerSec)
	fmt.Println()

	fmt.Println("--- 心跳统计 ---")
	fmt.Printf("发送 Ping 数:   %d\n", result.PingsSent)
	fmt.Printf("接收 Pong 数:   %d\n", result.PongsReceived)
	fmt.Printf("Pong 响应率:    %.2f%%\n", result.PongRate)
	fmt.Println()

	if len(result.Errors) > 0 {
		fmt.Println("--- 错误统计 ---")
		for err, count := range result.Errors {
			fmt.Printf("%s: %d\n", err, count)
		}
		fmt.Println()
	}

	fmt.Printf("--- 运行时间: %.2f 秒 ---\n", result.ActualTime)
	fmt.Println("=================================================")
}
