package station

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shatlykos/cafe-management-system/internal/metrics"
	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/service"
	"github.com/shatlykos/cafe-management-system/internal/sse"
)

const (
	heartbeatInterval = 30 * time.Second
	heartbeatTimeout  = 90 * time.Second
	messageQueueSize  = 1024
	scanTimeout       = 5 * time.Second
)

var ErrStationNotConnected = errors.New("station not connected")

type ScanDispatcher interface {
	Scan(ctx context.Context, code string, category model.VisitCategory) (*service.ScanResult, error)
}

type Gateway struct {
	clients sync.Map
	acks    sync.Map

	scans  ScanDispatcher
	sseHub *sse.Hub

	messageQueue chan incomingMessage
	workerCount  int
	workerWG     sync.WaitGroup

	logger *zap.Logger
	stopCh chan struct{}
}

type incomingMessage struct {
	client *Client
	raw    []byte
}

type Info struct {
	ID          string    `json:"id"`
	Label       string    `json:"label,omitempty"`
	Version     string    `json:"version,omitempty"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

func NewGateway(scans ScanDispatcher, sseHub *sse.Hub, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Gateway{
		scans:  scans,
		sseHub: sseHub,
		logger: logger,
		stopCh: make(chan struct{}),
	}
	g.workerCount = runtime.NumCPU() * 2
	if g.workerCount < 2 {
		g.workerCount = 2
	}
	g.messageQueue = make(chan incomingMessage, messageQueueSize)

	g.startMessageWorkers()

	go g.startHeartbeat()

	return g
}

func (g *Gateway) Register(client *Client) {
	if client == nil {
		return
	}

	if current, loaded := g.clients.Load(client.ID); loaded {
		if oldClient, ok := current.(*Client); ok && oldClient != client {
			oldClient.closeConn()
		}
	}

	g.clients.Store(client.ID, client)
	client.markPong(time.Now().UTC())

	metrics.SetStationConnections(g.ConnectedCount())
	g.broadcastStationStatus(client, "online")
}

func (g *Gateway) Unregister(client *Client) {
	if client == nil {
		return
	}

	if current, loaded := g.clients.Load(client.ID); loaded {
		if active, ok := current.(*Client); ok && active != client {
			return
		}
		g.clients.Delete(client.ID)
	}

	metrics.SetStationConnections(g.ConnectedCount())
	metrics.ObserveStationConnectionDuration(client.ID, time.Since(client.ConnectedAt()))
	g.broadcastStationStatus(client, "offline")
}

func (g *Gateway) HandleMessage(client *Client, raw []byte) {
	if client == nil || len(raw) == 0 {
		return
	}

	job := incomingMessage{
		client: client,
		raw:    append([]byte(nil), raw...),
	}

	select {
	case <-g.stopCh:
		return
	case g.messageQueue <- job:
		return
	default:
		g.logger.Warn("station message queue full, dropping message",
			zap.String("station_id", client.ID),
		)
	}
}

func (g *Gateway) processIncomingMessage(client *Client, raw []byte) {
	if client == nil || len(raw) == 0 {
		return
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		g.logger.Warn("invalid ws message", zap.String("station_id", client.ID), zap.Error(err))
		return
	}

	msgType := normalizeMsgType(msg.Type)
	if msgType == "" {
		g.logger.Warn("unknown ws message type", zap.String("station_id", client.ID), zap.String("type", string(msg.Type)))
		return
	}

	now := time.Now().UTC()
	client.markPong(now)

	switch msgType {
	case StationHello:
		g.handleHello(client, msg)
	case Ping:
		_ = g.sendToClient(client, Message{Type: Pong, ID: msg.ID})
	case Pong:
		client.markPong(now)
	case Ack:
		g.handleAck(msg)
	case Scan:
		g.handleScan(client, msg)
	default:
		g.logger.Debug("message type handled as noop", zap.String("station_id", client.ID), zap.String("type", string(msgType)))
	}
}

func (g *Gateway) SendToStation(stationID string, msg Message) error {
	value, ok := g.clients.Load(stationID)
	if !ok {
		return fmt.Errorf("station %s: %w", stationID, ErrStationNotConnected)
	}

	client, ok := value.(*Client)
	if !ok || client == nil {
		return errors.New("invalid station client")
	}

	return g.sendToClient(client, msg)
}

func (g *Gateway) Close() {
	select {
	case <-g.stopCh:
	default:
		close(g.stopCh)
	}
	g.workerWG.Wait()
}

func (g *Gateway) ConnectedCount() int {
	count := 0
	g.clients.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

func (g *Gateway) Stations() []Info {
	stations := make([]Info, 0, 4)
	g.clients.Range(func(_, value interface{}) bool {
		client, ok := value.(*Client)
		if !ok || client == nil {
			return true
		}

		label, version := client.meta()
		stations = append(stations, Info{
			ID:          client.ID,
			Label:       label,
			Version:     version,
			ConnectedAt: client.ConnectedAt(),
			LastSeenAt:  client.LastPong(),
		})
		return true
	})
	return stations
}

func (g *Gateway) startMessageWorkers() {
	if g.workerCount <= 0 {
		g.workerCount = 1
	}

	for idx := 0; idx < g.workerCount; idx++ {
		g.workerWG.Add(1)
		go g.messageWorker()
	}
}

func (g *Gateway) messageWorker() {
	defer g.workerWG.Done()

	for {
		select {
		case <-g.stopCh:
			return
		case job := <-g.messageQueue:
			g.processIncomingMessage(job.client, job.raw)
		}
	}
}

func (g *Gateway) startHeartbeat() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopCh:
			return
		case now := <-ticker.C:
			g.clients.Range(func(_, value interface{}) bool {
				client, ok := value.(*Client)
				if !ok || client == nil {
					return true
				}

				lastPong := client.LastPong()
				if !lastPong.IsZero() && now.Sub(lastPong) > heartbeatTimeout {
					g.logger.Warn("station heartbeat timeout",
						zap.String("station_id", client.ID),
						zap.Duration("idle", now.Sub(lastPong)),
					)
					client.unregister()
					return true
				}

				_ = g.sendToClient(client, Message{Type: Ping})
				return true
			})
		}
	}
}

func (g *Gateway) sendToClient(client *Client, msg Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case <-client.Done:
		return errors.New("client disconnected")
	case client.Send <- raw:
		return nil
	default:
		g.logger.Warn("station send channel is full, dropping message",
			zap.String("station_id", client.ID),
			zap.String("type", string(msg.Type)),
		)
		return nil
	}
}

func (g *Gateway) PingStation(ctx context.Context, stationID string, timeout time.Duration) error {
	value, ok := g.clients.Load(stationID)
	if !ok {
		return fmt.Errorf("station %s: %w", stationID, ErrStationNotConnected)
	}

	client, ok := value.(*Client)
	if !ok || client == nil {
		return errors.New("invalid station client")
	}

	baseline := client.LastPong()
	if err := g.sendToClient(client, Message{Type: Ping, ID: uuid.NewString()}); err != nil {
		return err
	}

	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		lastPong := client.LastPong()
		if !lastPong.IsZero() && (baseline.IsZero() || lastPong.After(baseline)) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return errors.New("ping timeout")
		case <-ticker.C:
		}
	}
}

func (g *Gateway) SendNoticeAndWaitAck(ctx context.Context, stationID, text string, timeout time.Duration) (bool, error) {
	raw, err := json.Marshal(NoticePayload{Text: strings.TrimSpace(text)})
	if err != nil {
		return false, err
	}

	msgID := uuid.NewString()
	waiter := make(chan struct{}, 1)
	g.acks.Store(msgID, waiter)
	defer g.acks.Delete(msgID)

	if err := g.SendToStation(stationID, Message{
		Type:    Notice,
		ID:      msgID,
		Payload: raw,
	}); err != nil {
		return false, err
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-timer.C:
		return false, nil
	case <-waiter:
		return true, nil
	}
}

func (g *Gateway) handleHello(client *Client, msg Message) {
	var payload StationHelloPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		g.logger.Warn("invalid station hello payload", zap.String("station_id", client.ID), zap.Error(err))
		return
	}

	client.setMeta(strings.TrimSpace(payload.Label), strings.TrimSpace(payload.Version))
	g.logger.Info("station registered",
		zap.String("station_id", client.ID),
		zap.String("label", payload.Label),
		zap.String("version", payload.Version),
	)
	g.broadcastStationStatus(client, "online")
}

func (g *Gateway) handleAck(msg Message) {
	ackID := strings.TrimSpace(msg.ID)
	if ackID == "" {
		var payload struct {
			ID        string `json:"id"`
			MsgID     string `json:"msg_id"`
			RequestID string `json:"request_id"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err == nil {
			ackID = strings.TrimSpace(payload.ID)
			if ackID == "" {
				ackID = strings.TrimSpace(payload.MsgID)
			}
			if ackID == "" {
				ackID = strings.TrimSpace(payload.RequestID)
			}
		}
	}

	if ackID == "" {
		return
	}

	waiterAny, ok := g.acks.LoadAndDelete(ackID)
	if !ok {
		return
	}

	waiter, ok := waiterAny.(chan struct{})
	if !ok {
		return
	}

	select {
	case waiter <- struct{}{}:
	default:
	}
}

func (g *Gateway) handleScan(client *Client, msg Message) {
	if g.scans == nil {
		return
	}

	var payload ScanPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		g.logger.Warn("invalid scan payload", zap.String("station_id", client.ID), zap.Error(err))
		g.sendError(client, msg.ID, "bad_payload", "Некорректный формат кадра")
		return
	}

	category := model.VisitCategory(strings.ToLower(strings.TrimSpace(payload.Category)))
	if category == "" {
		category = model.CategoryBreakfast
	}

	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	result, err := g.scans.Scan(ctx, payload.Code, category)
	reply := ScanResultPayload{
		Code:     strings.TrimSpace(payload.Code),
		Category: string(category),
	}

	switch {
	case err == nil:
		reply.Status = ScanStatusOK
		reply.ClientID = result.Client.ID
		reply.ClientName = result.Client.Name
		reply.Ordinal = result.Visit.Ordinal
		reply.Free = result.Visit.Free
		reply.UntilFree = result.Stats.UntilFree
	case errors.Is(err, service.ErrClientNotFound):
		reply.Status = ScanStatusUnknownCode
		reply.Message = "Штрихкод не найден"
	case errors.Is(err, service.ErrInvalidScanInput):
		reply.Status = ScanStatusInvalidCode
		reply.Message = "Пустой штрихкод"
	case errors.Is(err, service.ErrInvalidCategory):
		reply.Status = ScanStatusInvalidCode
		reply.Message = "Неизвестная категория"
	default:
		g.logger.Warn("scan dispatch failed",
			zap.String("station_id", client.ID),
			zap.String("code", payload.Code),
			zap.Error(err),
		)
		reply.Status = ScanStatusError
		reply.Message = "Ошибка сервера"
	}

	raw, err := json.Marshal(reply)
	if err != nil {
		g.logger.Warn("marshal scan result failed", zap.String("station_id", client.ID), zap.Error(err))
		return
	}

	_ = g.sendToClient(client, Message{
		Type:    ScanResult,
		ID:      msg.ID,
		Payload: raw,
	})
}

func (g *Gateway) sendError(client *Client, msgID, code, message string) {
	raw, err := json.Marshal(ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}

	_ = g.sendToClient(client, Message{
		Type:    Error,
		ID:      msgID,
		Payload: raw,
	})
}

func (g *Gateway) broadcastStationStatus(client *Client, status string) {
	if g.sseHub == nil {
		return
	}

	label, _ := client.meta()
	g.sseHub.Broadcast(sse.NewEvent(sse.EventStationStatus, map[string]interface{}{
		"station_id": client.ID,
		"label":      label,
		"status":     status,
		"timestamp":  time.Now().UTC(),
	}))
}

func normalizeMsgType(msgType MsgType) MsgType {
	normalized := strings.ToLower(strings.TrimSpace(string(msgType)))
	normalized = strings.ReplaceAll(normalized, "_", "")
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, ".", "")

	switch normalized {
	case strings.ToLower(string(StationHello)):
		return StationHello
	case strings.ToLower(string(Ping)):
		return Ping
	case strings.ToLower(string(Pong)):
		return Pong
	case strings.ToLower(string(Scan)):
		return Scan
	case strings.ToLower(string(ScanResult)):
		return ScanResult
	case strings.ToLower(string(Notice)):
		return Notice
	case strings.ToLower(string(Ack)):
		return Ack
	case strings.ToLower(string(Error)):
		return Error
	default:
		return ""
	}
}
