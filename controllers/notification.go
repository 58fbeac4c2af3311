package controllers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"go-marketplace/services"
	"go-marketplace/utils"
)

// NotificationController serves the caller's in-app inbox
type NotificationController struct {
	handler
	Inbox *services.Inbox
}

func NewNotificationController(inbox *services.Inbox, timeout time.Duration) *NotificationController {
	return &NotificationController{handler: handler{timeout: timeout}, Inbox: inbox}
}

func (nc *NotificationController) List(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := nc.context(r)
	defer cancel()

	pg := page(r)
	result, err := nc.Inbox.List(ctx, p.ID(), pg)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{
		"notifications": result.Notifications,
		"unreadCount":   result.UnreadCount,
		"page":          pg.Page,
		"limit":         pg.Limit,
		"total":         result.Total,
		"totalPages":    pg.TotalPages(result.Total),
	})
}

func (nc *NotificationController) UnreadCount(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := nc.context(r)
	defer cancel()

	n, err := nc.Inbox.UnreadCount(ctx, p.ID())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"unreadCount": n})
}

func (nc *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := nc.context(r)
	defer cancel()

	n, err := nc.Inbox.MarkRead(ctx, p.ID(), mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"notification": n})
}

func (nc *NotificationController) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := nc.context(r)
	defer cancel()

	n, err := nc.Inbox.MarkAllRead(ctx, p.ID())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"modifiedCount": n})
}

func (nc *NotificationController) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := nc.context(r)
	defer cancel()

	if err := nc.Inbox.Delete(ctx, p.ID(), mux.Vars(r)["id"]); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"message": "notification deleted"})
}

func (nc *NotificationController) DeleteAll(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := nc.context(r)
	defer cancel()

	n, err := nc.Inbox.DeleteAll(ctx, p.ID())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"deletedCount": n})
}
