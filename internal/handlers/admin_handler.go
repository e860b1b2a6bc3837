// File: internal/handlers/admin_handler.go
package handlers

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-lostfound/internal/middleware"
	"github.com/iyunix/go-lostfound/internal/services/admin_services"
)

type AdminHandler struct {
	adminService *admin_services.AdminService
}

func NewAdminHandler(adminService *admin_services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		log.Printf("[AdminHandler] Error loading stats: %v", err)
		writeError(w, http.StatusInternalServerError, "Error", "Failed to load statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) Items(w http.ResponseWriter, r *http.Request) {
	items, err := h.adminService.ListItems(r.Context())
	if err != nil {
		log.Printf("[AdminHandler] Error listing items: %v", err)
		writeError(w, http.StatusInternalServerError, "Error", "Failed to retrieve items")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Users pages through profiles using the page, limit and search parameters.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	result, err := h.adminService.ListUsers(r.Context(), page, limit, query.Get("search"))
	if err != nil {
		log.Printf("[AdminHandler] Error getting users: %v", err)
		writeError(w, http.StatusInternalServerError, "Error", "Failed to retrieve users")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.UserIDFrom(r.Context())
	itemID := mux.Vars(r)["id"]
	if err := h.adminService.DeleteItem(r.Context(), adminID, itemID); err != nil {
		log.Printf("[AdminHandler] Error deleting item %s: %v", itemID, err)
		writeServiceError(w, err)
		return
	}
	log.Printf("[AdminHandler] Admin %s deleted item %s", adminID, itemID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ExportUsersCSV(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.AllUsers(r.Context())
	if err != nil {
		log.Printf("[AdminHandler] Error exporting users: %v", err)
		writeError(w, http.StatusInternalServerError, "Error", "Failed to export users")
		return
	}

	filename := fmt.Sprintf("users_export_%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")

	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write([]string{"ID", "Email", "FullName", "IsAdmin", "CreatedAt"}); err != nil {
		log.Printf("[AdminHandler] Error writing CSV header: %v", err)
		return
	}
	for _, u := range users {
		name := ""
		if u.FullName != nil {
			name = *u.FullName
		}
		record := []string{u.ID, u.Email, name, strconv.FormatBool(u.IsAdmin), u.CreatedAt.Format(time.RFC3339)}
		if err := csvWriter.Write(record); err != nil {
			log.Printf("[AdminHandler] Error writing CSV record for user %s: %v", u.ID, err)
			return
		}
	}
	log.Printf("[AdminHandler] Exported %d users to CSV.", len(users))
}
