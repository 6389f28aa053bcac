package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mzajc/stocktake/internal/imaging"
	"github.com/mzajc/stocktake/internal/model"
	"github.com/mzajc/stocktake/internal/store"
)

// AdminItemsPage handles GET /admin/items with an optional search box.
func (s *Server) AdminItemsPage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	items, err := store.SearchItems(r.Context(), s.DB, model.ItemFilter{Query: query})
	if err != nil {
		slog.Error("failed to search items", "error", err)
	}

	pd := s.pageData(r, "Items")
	pd.Data = struct {
		Items []model.Item
		Query string
	}{Items: items, Query: query}
	s.Templates.Render(w, "admin_items.html", pd)
}

func itemFromForm(r *http.Request) (store.CreateItemInput, error) {
	expected, err := strconv.Atoi(r.FormValue("expected_quantity"))
	if err != nil || expected < 0 {
		return store.CreateItemInput{}, fmt.Errorf("expected quantity must be a non-negative number")
	}

	var barcodes []string
	for _, code := range strings.Split(r.FormValue("barcodes"), "\n") {
		if code = strings.TrimSpace(code); code != "" {
			barcodes = append(barcodes, code)
		}
	}

	return store.CreateItemInput{
		SKU:              r.FormValue("sku"),
		Name:             r.FormValue("name"),
		Description:      r.FormValue("description"),
		Category:         r.FormValue("category"),
		Location:         r.FormValue("location"),
		ExpectedQuantity: expected,
		Unit:             r.FormValue("unit"),
		Barcodes:         barcodes,
	}, nil
}

// AdminItemCreateSubmit handles POST /admin/items.
func (s *Server) AdminItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	input, err := itemFromForm(r)
	if err != nil {
		pd := s.pageData(r, "Items")
		pd.Error = err.Error()
		s.Templates.Render(w, "admin_items.html", pd)
		return
	}
	input.CreatedBy = claims.UserID

	item, err := store.CreateItem(r.Context(), s.DB, input)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		pd := s.pageData(r, "Items")
		pd.Error = "Could not create the item."
		s.Templates.Render(w, "admin_items.html", pd)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/admin/items/%d", item.ID), http.StatusSeeOther)
}

// AdminItemDetailPage handles GET /admin/items/{id}.
func (s *Server) AdminItemDetailPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := store.GetItem(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if item == nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	pd := s.pageData(r, item.Name)
	pd.Data = struct {
		Item *model.Item
	}{Item: item}
	s.Templates.Render(w, "admin_item_detail.html", pd)
}

// AdminItemUpdateSubmit handles POST /admin/items/{id}.
func (s *Server) AdminItemUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	input, err := itemFromForm(r)
	if err != nil {
		http.Redirect(w, r, fmt.Sprintf("/admin/items/%d", id), http.StatusSeeOther)
		return
	}

	err = store.UpdateItem(r.Context(), s.DB, id, store.UpdateItemInput{
		SKU:              input.SKU,
		Name:             input.Name,
		Description:      input.Description,
		Category:         input.Category,
		Location:         input.Location,
		ExpectedQuantity: input.ExpectedQuantity,
		Unit:             input.Unit,
		Barcodes:         input.Barcodes,
		IsActive:         r.FormValue("is_active") != "",
	})
	if err != nil {
		slog.Error("failed to update item", "error", err)
	}

	http.Redirect(w, r, fmt.Sprintf("/admin/items/%d", id), http.StatusSeeOther)
}

// AdminItemDeleteSubmit handles POST /admin/items/{id}/delete. Past
// tasks and reports keep their snapshots of the item.
func (s *Server) AdminItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := store.DeleteItem(r.Context(), s.DB, id); err != nil {
		slog.Error("failed to delete item", "error", err)
	}
	http.Redirect(w, r, "/admin/items", http.StatusSeeOther)
}

// AdminItemImageSubmit handles POST /admin/items/{id}/image.
func (s *Server) AdminItemImageSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		http.Error(w, "file too large", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := store.SetItemImage(r.Context(), s.DB, id, result.Data, result.MIME); err != nil {
		slog.Error("failed to store image", "error", err)
	}

	http.Redirect(w, r, fmt.Sprintf("/admin/items/%d", id), http.StatusSeeOther)
}

// ItemImageGet handles GET /items/{id}/image (cookie-authenticated,
// shared by both role surfaces).
func (s *Server) ItemImageGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get image", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}
