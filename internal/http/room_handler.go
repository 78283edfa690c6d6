package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/timeutil"
)

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (booking.Room, error)
	DeactivateRoom(ctx context.Context, principal application.Principal, roomID string) (booking.Room, error)
	ListRooms(ctx context.Context, filter application.RoomFilter) ([]booking.Room, error)
	ListBuildings(ctx context.Context) ([]string, error)
}

type RoomHandler struct {
	service   roomService
	responder responder
	logger    *slog.Logger
}

func NewRoomHandler(service roomService, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.WarnContext(r.Context(), "invalid room payload", "error", err)
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}

	room, err := h.service.CreateRoom(r.Context(), application.CreateRoomParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "room creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("room_id", room.ID).InfoContext(r.Context(), "room created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{Room: toRoomDTO(room)})
}

// Deactivate takes a room out of service. Requests against it are kept.
func (h *RoomHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Deactivate", "principal_id", principal.UserID, "room_id", roomID)

	room, err := h.service.DeactivateRoom(r.Context(), principal, roomID)
	if err != nil {
		logger.ErrorContext(r.Context(), "room deactivation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room deactivated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	filter := application.RoomFilter{Building: strings.TrimSpace(query.Get("building"))}
	if raw := strings.TrimSpace(query.Get("active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, booking.NewValidationError("active", "must be true or false"))
			return
		}
		filter.ActiveOnly = active
	}

	rooms, err := h.service.ListRooms(r.Context(), filter)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "room list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

func (h *RoomHandler) Buildings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	buildings, err := h.service.ListBuildings(r.Context())
	if err != nil {
		h.log(r.Context(), "Buildings").ErrorContext(r.Context(), "building list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if buildings == nil {
		buildings = []string{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBuildingsResponse{Buildings: buildings})
}

type roomRequest struct {
	Code     string `json:"code" validate:"required,max=32"`
	Name     string `json:"name" validate:"required,max=128"`
	Building string `json:"building" validate:"required,max=128"`
	Capacity int    `json:"capacity" validate:"gt=0"`
}

func (r roomRequest) toInput() application.RoomInput {
	return application.RoomInput{
		Code:     strings.TrimSpace(r.Code),
		Name:     strings.TrimSpace(r.Name),
		Building: strings.TrimSpace(r.Building),
		Capacity: r.Capacity,
	}
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type listBuildingsResponse struct {
	Buildings []string `json:"buildings"`
}

type roomDTO struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Building  string `json:"building"`
	Capacity  int    `json:"capacity"`
	IsActive  bool   `json:"isActive"`
	CreatedBy string `json:"createdBy,omitempty"`
	CreatedAt string `json:"createdAtUtc"`
	UpdatedAt string `json:"updatedAtUtc"`
}

func toRoomDTO(room booking.Room) roomDTO {
	return roomDTO{
		ID:        room.ID,
		Code:      room.Code,
		Name:      room.Name,
		Building:  room.Building,
		Capacity:  room.Capacity,
		IsActive:  room.IsActive,
		CreatedBy: room.CreatedBy,
		CreatedAt: timeutil.FormatTimestamp(room.CreatedAt),
		UpdatedAt: timeutil.FormatTimestamp(room.UpdatedAt),
	}
}

func toRoomDTOs(rooms []booking.Room) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}
