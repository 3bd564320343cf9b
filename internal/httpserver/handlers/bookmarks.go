package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/keep/internal/domain"
	"github.com/MrSnakeDoc/keep/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keep/internal/httpserver/respond"
	"github.com/MrSnakeDoc/keep/internal/logger"
	"github.com/MrSnakeDoc/keep/internal/sources/homepage"
)

const maxBookmarkBody = 64 << 10

const (
	msgFetchFailed  = "Failed to fetch bookmarks"
	msgCreateFailed = "Failed to create bookmark"
	msgDeleteFailed = "Failed to delete bookmark"
	msgImportFailed = "Failed to import bookmarks"
	msgDeleted      = "Bookmark deleted successfully"
)

// ListBookmarks handles GET /bookmarks.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := domain.IdentityFrom(r.Context())
		if !ok {
			respond.Unauthorized(w)
			return
		}

		list, err := d.Bookmarks.List(r.Context(), id.ID)
		if err != nil {
			storeError(d, r, id, "list bookmarks failed", err)
			respond.Error(w, http.StatusInternalServerError, msgFetchFailed)
			return
		}

		respond.JSON(w, http.StatusOK, list)
	}
}

// CreateBookmark handles POST /bookmarks.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := domain.IdentityFrom(r.Context())
		if !ok {
			respond.Unauthorized(w)
			return
		}

		var in domain.NewBookmark
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBookmarkBody)).Decode(&in); err != nil {
			respond.Error(w, http.StatusBadRequest, respond.MsgBadBody)
			return
		}

		b, err := d.Bookmarks.Create(r.Context(), id.ID, in)
		if err != nil {
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				respond.Error(w, http.StatusBadRequest, ve.Message)
				return
			}
			storeError(d, r, id, "create bookmark failed", err)
			respond.Error(w, http.StatusInternalServerError, msgCreateFailed)
			return
		}

		respond.JSON(w, http.StatusCreated, b)
	}
}

// DeleteBookmark handles DELETE /bookmarks/{id}. Absent and foreign ids get
// the same 200 as an actual removal.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := domain.IdentityFrom(r.Context())
		if !ok {
			respond.Unauthorized(w)
			return
		}

		if err := d.Bookmarks.Delete(r.Context(), id.ID, chi.URLParam(r, "id")); err != nil {
			storeError(d, r, id, "delete bookmark failed", err)
			respond.Error(w, http.StatusInternalServerError, msgDeleteFailed)
			return
		}

		respond.Message(w, http.StatusOK, msgDeleted)
	}
}

// ImportBookmarks handles POST /bookmarks/import?format=bookmarks|services.
func ImportBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := domain.IdentityFrom(r.Context())
		if !ok {
			respond.Unauthorized(w)
			return
		}

		format, err := homepage.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, d.ImportMaxBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respond.Error(w, http.StatusRequestEntityTooLarge, "import file too large")
				return
			}
			respond.Error(w, http.StatusBadRequest, respond.MsgBadBody)
			return
		}

		res, err := d.Bookmarks.Import(r.Context(), id.ID, format, data)
		if err != nil {
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				respond.Error(w, http.StatusBadRequest, ve.Message)
				return
			}
			storeError(d, r, id, "import bookmarks failed", err,
				logger.Int("imported", res.Imported))
			respond.Error(w, http.StatusInternalServerError, msgImportFailed)
			return
		}

		respond.JSON(w, http.StatusOK, res)
	}
}

// storeError logs the full error server side. Clients only get a generic message.
func storeError(d deps.Deps, r *http.Request, id domain.Identity, msg string, err error, extra ...logger.Field) {
	fields := append([]logger.Field{
		logger.String("request_id", middleware.GetReqID(r.Context())),
		logger.String("owner_id", id.ID),
		logger.Error(err),
	}, extra...)
	d.Logger.Error(msg, fields...)
}
