package web

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/erazemk/wildcat/internal/imaging"
	"github.com/erazemk/wildcat/internal/metrics"
	"github.com/erazemk/wildcat/internal/model"
	"github.com/erazemk/wildcat/internal/objstore"
	"github.com/erazemk/wildcat/internal/store"
)

// maxPhotoUpload is the largest original photo accepted before compression.
const maxPhotoUpload = 15 << 20

type itemPage struct {
	PageData
	Item   *model.Item
	Report template.URL
	Own    bool
}

// ItemDetailPage handles GET /items/{id}. Guests are sent to log in and come
// back to this item afterwards.
func (s *Server) ItemDetailPage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	profile := GetWebProfile(r.Context())
	if profile == nil {
		s.deferItem(w, id)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	item, err := store.GetItem(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if item == nil || (item.Status == model.ItemStatusArchived && item.SellerID != profile.ID) {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	s.Templates.Render(w, "item.html", &itemPage{
		PageData: pageData(r, item.Title),
		Item:     item,
		Report:   reportMailto(s.ModeratorEmail, item),
		Own:      item.SellerID == profile.ID,
	})
}

type sellPage struct {
	PageData
	Form       model.ListingInput
	Categories []string
	Conditions []string
	MaxImages  int
}

func (s *Server) newSellPage(r *http.Request, form model.ListingInput) *sellPage {
	return &sellPage{
		PageData:   pageData(r, "Sell an item"),
		Form:       form,
		Categories: model.Categories,
		Conditions: model.Conditions,
		MaxImages:  model.MaxImages,
	}
}

// SellPage handles GET /sell.
func (s *Server) SellPage(w http.ResponseWriter, r *http.Request) {
	form := model.ListingInput{Category: model.DefaultCategory(), Condition: model.DefaultCondition()}
	if p := GetWebProfile(r.Context()); p.PhoneNumber != nil {
		form.Phone = *p.PhoneNumber
	}
	s.Templates.Render(w, "sell.html", s.newSellPage(r, form))
}

// SellSubmit handles POST /sell. Photos are compressed, uploaded in the order
// they were picked, and only then is the listing inserted.
func (s *Server) SellSubmit(w http.ResponseWriter, r *http.Request) {
	profile := GetWebProfile(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, int64(model.MaxImages)*maxPhotoUpload+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := model.ListingInput{
		Title:       r.FormValue("title"),
		Price:       r.FormValue("price"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Condition:   r.FormValue("condition"),
		Phone:       r.FormValue("phone"),
		ShowPhone:   r.FormValue("show_phone") != "",
	}
	form.Normalize()
	fail := func(msg string) {
		page := s.newSellPage(r, form)
		page.Error = msg
		s.Templates.RenderStatus(w, http.StatusBadRequest, "sell.html", page)
	}

	price, err := form.Validate()
	if err != nil {
		fail(err.Error())
		return
	}

	// Browsers send one empty part when no file was picked.
	var files []*multipart.FileHeader
	for _, fh := range r.MultipartForm.File["images"] {
		if fh.Filename != "" || fh.Size > 0 {
			files = append(files, fh)
		}
	}
	if len(files) > model.MaxImages {
		fail("A listing can have at most 3 photos.")
		return
	}
	raw, err := readUploads(files)
	if err != nil {
		fail("Could not read the photos, try again.")
		return
	}

	photos, err := imaging.CompressBatch(r.Context(), raw)
	if err != nil {
		slog.Warn("failed to process photos", "user", profile.ID, "error", err)
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			fail("Only JPEG, PNG and WebP photos are accepted.")
			return
		}
		if errors.Is(err, imaging.ErrTooManyPixels) {
			fail("That photo is too large, try a smaller one.")
			return
		}
		fail("Could not process the photos, try again.")
		return
	}

	urls := make([]string, 0, len(photos))
	for _, p := range photos {
		key := objstore.ObjectKey(profile.ID, p.Ext)
		if err := s.Objects.Put(r.Context(), objstore.ImagesBucket, key, bytes.NewReader(p.Data), int64(len(p.Data)), p.MIME); err != nil {
			slog.Error("failed to store photo", "key", key, "error", err)
			fail("Could not upload the photos, try again.")
			return
		}
		metrics.PhotosUploaded.Inc()
		urls = append(urls, s.Objects.PublicURL(objstore.ImagesBucket, key))
	}

	var displayPhone *string
	if form.Phone != "" {
		if err := store.UpdateProfile(r.Context(), s.DB, profile.ID, model.ProfilePatch{PhoneNumber: &form.Phone}); err != nil {
			slog.Error("failed to save phone number", "user", profile.ID, "error", err)
			fail("Could not save your phone number, try again.")
			return
		}
		if form.ShowPhone {
			displayPhone = &form.Phone
		}
	}

	item, err := store.CreateItem(r.Context(), s.DB, profile.ID, model.NewListing{
		Title:        form.Title,
		Price:        price,
		Description:  form.Description,
		Category:     form.Category,
		Condition:    form.Condition,
		Images:       urls,
		DisplayPhone: displayPhone,
	})
	if err != nil {
		slog.Error("failed to create item", "error", err)
		fail("Could not create the listing, try again.")
		return
	}

	metrics.ListingsCreated.WithLabelValues(item.Category).Inc()
	slog.Info("listing created", "user", profile.ID, "item", item.ID, "photos", len(urls))
	http.Redirect(w, r, "/?created=1", http.StatusSeeOther)
}

func readUploads(files []*multipart.FileHeader) ([][]byte, error) {
	out := make([][]byte, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(f, maxPhotoUpload))
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}
