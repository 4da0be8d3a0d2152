package services

import (
	"context"

	"voice-lab/domain"
	"voice-lab/runtime"
)

type IVoiceService interface {
	RegisterUser(name string) domain.UserID
	CreateRoom(hostID domain.UserID, name string) (domain.RoomID, error)
	JoinRoom(userID domain.UserID, roomID domain.RoomID) error
	LeaveRoom(userID domain.UserID, roomID domain.RoomID) error
	RoomInfo(roomID domain.RoomID) (domain.RoomSnapshot, error)
	Send(ctx context.Context, userID domain.UserID, roomID domain.RoomID, payload []byte, slot int) (domain.MessageID, error)
	Broadcast(ctx context.Context, userID domain.UserID, roomID domain.RoomID, payload []byte, targets []int) ([]runtime.TargetResult, error)
	Message(id domain.MessageID) (domain.Message, error)
}

// VoiceService is the programmatic surface over the runtime components.
type VoiceService struct {
	orchestrator *runtime.Orchestrator
}

func NewVoiceService(o *runtime.Orchestrator) *VoiceService {
	return &VoiceService{orchestrator: o}
}

func (s *VoiceService) RegisterUser(name string) domain.UserID {
	return s.orchestrator.Registry().CreateUser(name)
}

func (s *VoiceService) CreateRoom(hostID domain.UserID, name string) (domain.RoomID, error) {
	return s.orchestrator.Registry().CreateRoom(hostID, name)
}

func (s *VoiceService) JoinRoom(userID domain.UserID, roomID domain.RoomID) error {
	return s.orchestrator.Registry().JoinRoom(userID, roomID)
}

func (s *VoiceService) LeaveRoom(userID domain.UserID, roomID domain.RoomID) error {
	return s.orchestrator.Registry().LeaveRoom(userID, roomID)
}

func (s *VoiceService) RoomInfo(roomID domain.RoomID) (domain.RoomSnapshot, error) {
	return s.orchestrator.Registry().RoomInfo(roomID)
}

func (s *VoiceService) Send(ctx context.Context, userID domain.UserID, roomID domain.RoomID,
	payload []byte, slot int) (domain.MessageID, error) {
	return s.orchestrator.Router().Send(ctx, userID, roomID, payload, slot)
}

func (s *VoiceService) Broadcast(ctx context.Context, userID domain.UserID, roomID domain.RoomID,
	payload []byte, targets []int) ([]runtime.TargetResult, error) {
	return s.orchestrator.Broadcaster().Broadcast(ctx, userID, roomID, payload, targets)
}

func (s *VoiceService) Message(id domain.MessageID) (domain.Message, error) {
	return s.orchestrator.Router().GetMessage(id)
}
