// File: internal/handlers/item_handler.go
package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/middleware"
	"github.com/iyunix/go-lostfound/internal/repository/item"
	"github.com/iyunix/go-lostfound/internal/services"
	"github.com/iyunix/go-lostfound/internal/storage"
)

type ItemHandler struct {
	items *services.ItemService
}

func NewItemHandler(items *services.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// Browse lists items, filtered by the building, date and status query
// parameters.
func (h *ItemHandler) Browse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := item.Filter{
		Building: strings.TrimSpace(q.Get("building")),
		Date:     q.Get("date"),
		Status:   domain.ItemStatus(q.Get("status")),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	items, err := h.items.Browse(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Report accepts multipart/form-data with an optional "image" file, or a
// plain JSON body without one.
func (h *ItemHandler) Report(w http.ResponseWriter, r *http.Request) {
	var (
		in    services.ItemInput
		image []byte
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var err error
		in, image, err = readItemForm(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid item", err.Error())
			return
		}
	} else if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item", "Invalid request body")
		return
	}

	created, err := h.items.Report(r.Context(), middleware.UserIDFrom(r.Context()), in, image)
	if err != nil {
		log.Printf("[ItemHandler] Report failed: %v", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func readItemForm(w http.ResponseWriter, r *http.Request) (services.ItemInput, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageSize+(1<<20))
	if err := r.ParseMultipartForm(storage.MaxImageSize); err != nil {
		return services.ItemInput{}, nil, errors.New("Upload is too large or malformed")
	}
	in := services.ItemInput{
		Building:    r.FormValue("building"),
		Classroom:   r.FormValue("classroom"),
		Description: r.FormValue("description"),
		Category:    domain.Category(r.FormValue("category")),
		Date:        r.FormValue("date"),
		Time:        r.FormValue("time"),
	}

	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, nil
	}
	if err != nil {
		return in, nil, errors.New("Could not read the image")
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, storage.MaxImageSize+1))
	if err != nil {
		return in, nil, errors.New("Could not read the image")
	}
	if len(image) > storage.MaxImageSize {
		return in, nil, storage.ErrImageTooLarge
	}
	return in, image, nil
}

func (h *ItemHandler) Mine(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.Mine(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) Returned(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.Returned(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	it, err := h.items.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *ItemHandler) MarkReturned(w http.ResponseWriter, r *http.Request) {
	it, err := h.items.MarkReturned(r.Context(), mux.Vars(r)["id"], actorFrom(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.items.Delete(r.Context(), mux.Vars(r)["id"], actorFrom(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func actorFrom(r *http.Request) services.Actor {
	return services.Actor{
		UserID:  middleware.UserIDFrom(r.Context()),
		IsAdmin: middleware.IsAdminFrom(r.Context()),
	}
}
