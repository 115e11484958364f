package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"bimberek/internal/render"
	"bimberek/internal/session"
)

// Sliders renders the slider management list.
func (a *Admin) Sliders(w http.ResponseWriter, r *http.Request) {
	sliders, err := a.sliderStore.List()
	if err != nil {
		slog.Error("slider list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "admin_sliders", &render.PageData{
		Title:   "Slidery",
		Section: "admin",
		Data: map[string]any{
			"Sliders": sliders,
			"Theme":   themeFor(r, a.themeStore),
		},
	})
}

// SliderCreate adds a new, inactive slider.
func (a *Admin) SliderCreate(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		session.AddFlash(w, r, "error", "Podaj nazwę slidera.")
		http.Redirect(w, r, "/admin/sliders", http.StatusSeeOther)
		return
	}

	slider, err := a.sliderStore.Create(name)
	if err != nil {
		slog.Error("slider create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/sliders/"+slider.ID.String(), http.StatusSeeOther)
}

// SliderDetail renders the tile editor for one slider.
func (a *Admin) SliderDetail(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	slider, err := a.sliderStore.FindByID(id)
	if err != nil {
		slog.Error("slider lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if slider == nil {
		http.NotFound(w, r)
		return
	}

	products, err := a.productStore.List()
	if err != nil {
		slog.Error("product list failed", "error", err)
	}
	media, err := a.mediaStore.List()
	if err != nil {
		slog.Error("media list failed", "error", err)
	}

	a.renderer.Page(w, r, "admin_slider_form", &render.PageData{
		Title:   "Slider",
		Section: "admin",
		Data: map[string]any{
			"Slider":    slider,
			"Products":  products,
			"Media":     media,
			"ImageBase": a.imageBase(),
			"Theme":     themeFor(r, a.themeStore),
		},
	})
}

// SliderRename changes a slider's name.
func (a *Admin) SliderRename(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		http.Redirect(w, r, "/admin/sliders/"+id.String(), http.StatusSeeOther)
		return
	}

	if err := a.sliderStore.Rename(id, name); err != nil {
		slog.Error("slider rename failed", "error", err, "slider_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/sliders/"+id.String(), http.StatusSeeOther)
}

// SliderActivate makes a slider the active one, deactivating the rest.
func (a *Admin) SliderActivate(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := a.sliderStore.Activate(id); err != nil {
		slog.Error("slider activate failed", "error", err, "slider_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/sliders", http.StatusSeeOther)
}

// SliderDeactivate turns the slider off; the homepage then shows none.
func (a *Admin) SliderDeactivate(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := a.sliderStore.Deactivate(id); err != nil {
		slog.Error("slider deactivate failed", "error", err, "slider_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/sliders", http.StatusSeeOther)
}

// SliderDelete removes a slider and its tiles.
func (a *Admin) SliderDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := a.sliderStore.Delete(id); err != nil {
		slog.Error("slider delete failed", "error", err, "slider_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/sliders", http.StatusSeeOther)
}

// SliderItemAdd appends a tile referencing a product or a media asset.
func (a *Admin) SliderItemAdd(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	productID, err := formUUIDPtr(r, "product_id")
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	mediaID, err := formUUIDPtr(r, "media_id")
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	// A tile points at exactly one of the two.
	if (productID == nil) == (mediaID == nil) {
		session.AddFlash(w, r, "error", "Wybierz produkt albo grafikę.")
		http.Redirect(w, r, "/admin/sliders/"+id.String(), http.StatusSeeOther)
		return
	}

	if _, err := a.sliderStore.AddItem(id, productID, mediaID, formStrPtr(r, "caption")); err != nil {
		slog.Error("slider item add failed", "error", err, "slider_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/sliders/"+id.String(), http.StatusSeeOther)
}

// SliderItemRemove deletes one tile.
func (a *Admin) SliderItemRemove(w http.ResponseWriter, r *http.Request) {
	sliderID, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	itemID, err := urlUUID(r, "itemID")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := a.sliderStore.RemoveItem(itemID); err != nil {
		slog.Error("slider item remove failed", "error", err, "item_id", itemID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/sliders/"+sliderID.String(), http.StatusSeeOther)
}

// SliderReorder rewrites tile order from the submitted item_id sequence.
func (a *Admin) SliderReorder(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var itemIDs []uuid.UUID
	for _, raw := range r.PostForm["item_id"] {
		itemID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		itemIDs = append(itemIDs, itemID)
	}
	if len(itemIDs) == 0 {
		http.Redirect(w, r, "/admin/sliders/"+id.String(), http.StatusSeeOther)
		return
	}

	if err := a.sliderStore.Reorder(id, itemIDs); err != nil {
		slog.Error("slider reorder failed", "error", err, "slider_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/sliders/"+id.String(), http.StatusSeeOther)
}
