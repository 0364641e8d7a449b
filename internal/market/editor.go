package market

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/erazemk/wildcat/internal/imaging"
	"github.com/erazemk/wildcat/internal/model"
	"github.com/erazemk/wildcat/internal/objstore"
)

// Compressor shrinks a batch of photos, failing the whole batch if any photo fails.
type Compressor func(ctx context.Context, images [][]byte) ([]*imaging.Result, error)

// Preview is a selected photo as shown in the editor before upload.
type Preview struct {
	ID    int
	Batch int
	Data  []byte
	Ready bool
}

type photo struct {
	id     int
	batch  int
	index  int // position within its batch
	raw    []byte
	result *imaging.Result
}

// Editor is the form for a new listing. Photos are compressed in the
// background as soon as they are added.
type Editor struct {
	sessions *SessionProvider
	store    ListingStore
	objects  ObjectStore
	notify   Notifier
	compress Compressor

	mu        sync.Mutex
	draft     model.ListingInput
	photos    []*photo
	nextID    int
	nextBatch int
	inFlight  int
	batchErr  error
	wg        sync.WaitGroup
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithCompressor replaces imaging.CompressBatch.
func WithCompressor(c Compressor) EditorOption {
	return func(e *Editor) { e.compress = c }
}

// NewEditor returns an empty listing form. notify may be nil.
func NewEditor(sessions *SessionProvider, store ListingStore, objects ObjectStore, notify Notifier, opts ...EditorOption) *Editor {
	e := &Editor{
		sessions: sessions,
		store:    store,
		objects:  objects,
		notify:   notify,
		compress: imaging.CompressBatch,
		draft:    emptyDraft(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func emptyDraft() model.ListingInput {
	return model.ListingInput{Category: model.DefaultCategory(), Condition: model.DefaultCondition()}
}

// Draft returns the current form fields.
func (e *Editor) Draft() model.ListingInput {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// Edit changes the form fields. Price input is clamped as it is typed.
func (e *Editor) Edit(fn func(*model.ListingInput)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.draft)
	e.draft.Price = model.ClampPrice(e.draft.Price)
}

// AddImages adds a batch of photos and starts compressing them. It fails with
// ErrTooManyImages, leaving the form as it was, if the listing would end up
// with more than model.MaxImages photos. A compression failure removes the
// whole batch; it is reported by Wait.
func (e *Editor) AddImages(images [][]byte) (batch int, err error) {
	if len(images) == 0 {
		return 0, nil
	}

	e.mu.Lock()
	if len(e.photos)+len(images) > model.MaxImages {
		e.mu.Unlock()
		return 0, ErrTooManyImages
	}
	e.nextBatch++
	batch = e.nextBatch
	for i, raw := range images {
		e.nextID++
		e.photos = append(e.photos, &photo{id: e.nextID, batch: batch, index: i, raw: raw})
	}
	e.inFlight++
	e.wg.Add(1)
	e.mu.Unlock()

	go e.compressBatch(batch, images)
	return batch, nil
}

func (e *Editor) compressBatch(batch int, images [][]byte) {
	defer e.wg.Done()
	results, err := e.compress(context.Background(), images)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight--

	kept := e.photos[:0]
	for _, p := range e.photos {
		if p.batch != batch {
			kept = append(kept, p)
			continue
		}
		if err != nil {
			continue
		}
		p.result = results[p.index]
		kept = append(kept, p)
	}
	e.photos = kept

	if err != nil {
		e.batchErr = fmt.Errorf("processing photos: %w", err)
	}
}

// Wait blocks until no batch is being compressed and returns the last batch
// error, clearing it.
func (e *Editor) Wait() error {
	e.wg.Wait()
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.batchErr
	e.batchErr = nil
	return err
}

// Previews returns the selected photos in selection order.
func (e *Editor) Previews() []Preview {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Preview, len(e.photos))
	for i, p := range e.photos {
		out[i] = Preview{ID: p.id, Batch: p.batch, Data: p.raw, Ready: p.result != nil}
	}
	return out
}

// RemoveImage drops one photo.
func (e *Editor) RemoveImage(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, p := range e.photos {
		if p.id == id {
			e.photos = append(e.photos[:i], e.photos[i+1:]...)
			return
		}
	}
}

// Reset clears the form.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = emptyDraft()
	e.photos = nil
	e.batchErr = nil
}

// Submit uploads the photos in order and creates the listing. Nothing is
// inserted unless every upload succeeds. On success the form is reset and
// the notifier told.
func (e *Editor) Submit(ctx context.Context) (*model.Item, error) {
	e.mu.Lock()
	if e.inFlight > 0 {
		e.mu.Unlock()
		return nil, ErrCompressing
	}
	in := e.draft
	results := make([]*imaging.Result, 0, len(e.photos))
	for _, p := range e.photos {
		results = append(results, p.result)
	}
	e.mu.Unlock()

	session := e.sessions.Session()
	if session == nil {
		return nil, ErrNotAuthenticated
	}

	in.Normalize()
	price, err := in.Validate()
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(results))
	for i, r := range results {
		url, err := e.objects.Upload(ctx, objstore.ImagesBucket, objstore.ObjectKey(session.UserID, r.Ext), r.Data, r.MIME)
		if err != nil {
			return nil, fmt.Errorf("uploading photo %d: %w", i+1, err)
		}
		urls = append(urls, url)
	}

	var displayPhone *string
	if in.Phone != "" {
		profile, err := e.store.UpdateProfile(ctx, session.UserID, model.ProfilePatch{PhoneNumber: &in.Phone})
		if err != nil {
			return nil, fmt.Errorf("saving phone number: %w", err)
		}
		e.sessions.SetProfile(profile)
		if in.ShowPhone {
			phone := in.Phone
			displayPhone = &phone
		}
	}

	item, err := e.store.CreateItem(ctx, model.NewListing{
		Title:        in.Title,
		Price:        price,
		Description:  in.Description,
		Category:     in.Category,
		Condition:    in.Condition,
		Images:       urls,
		DisplayPhone: displayPhone,
	})
	if err != nil {
		return nil, fmt.Errorf("creating listing: %w", err)
	}

	e.Reset()
	if e.notify != nil {
		e.notify.ListingCreated(ctx, item)
	}
	return item, nil
}

// IsUserError reports whether err is one the user can fix in the form.
func IsUserError(err error) bool {
	return model.IsValidation(err) ||
		errors.Is(err, ErrTooManyImages) ||
		errors.Is(err, ErrCompressing) ||
		errors.Is(err, ErrNotAuthenticated)
}
