// Package toilet implements the repository service: id allocation, record
// creation, field updates, votes, image attachment and deletion against
// the versioned blob store. Every mutation is a whole-record rewrite
// guarded by the revision token of the preceding read.
package toilet

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"toiletmap/internal/blobstore"
	"toiletmap/internal/codec"
	"toiletmap/internal/rating"
	"toiletmap/pkg/logging"
	"toiletmap/pkg/model"
)

const (
	tracerID   = "toilet-controller"
	recordsDir = "data/toilets"
	imagesDir  = "data/images"

	// MaxImageBytes is the upload ceiling for a single image payload.
	MaxImageBytes = 10 << 20
)

// ErrNotFound is returned when the referenced toilet record is absent.
var ErrNotFound = errors.New("toilet not found")

// ErrConflict is returned when a write loses the optimistic-concurrency
// race; the caller should re-read and retry.
var ErrConflict = errors.New("toilet record was modified concurrently")

// ErrValidation is returned when required input is missing or out of range.
var ErrValidation = errors.New("invalid toilet input")

// ErrImageTooLarge is returned when an image payload exceeds MaxImageBytes.
var ErrImageTooLarge = errors.New("image too large")

type geocodingGateway interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// Controller defines the toilet repository service controller.
type Controller struct {
	store    blobstore.Store
	geocoder geocodingGateway
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a toilet service controller. geocoder may be nil, in which
// case the address must always be supplied by the caller.
func New(store blobstore.Store, geocoder geocodingGateway, logger *zap.Logger) *Controller {
	logger = logger.With(
		zap.String(logging.FieldComponent, "controller"),
	)
	return &Controller{
		store:    store,
		geocoder: geocoder,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// CreateResult carries the created record plus the non-fatal outcome of
// its image attachment. ImageErr is set when the record persisted but the
// image could not be attached.
type CreateResult struct {
	Toilet   *model.Toilet
	ImageErr error
}

// UpdateResult mirrors CreateResult for the update flow.
type UpdateResult struct {
	Toilet   *model.Toilet
	ImageErr error
}

// Create validates the input, allocates the smallest free id and writes a
// fresh record. An attached image travels as a saga: record write, image
// write, record rewrite. Only an oversize image aborts creation; any later
// image failure leaves the record standing and is reported in ImageErr.
func (c *Controller) Create(ctx context.Context, req *model.CreateToiletRequest) (*CreateResult, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Controller/Create")
	defer span.End()

	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.Address == "" && c.geocoder != nil {
		addr, err := c.geocoder.ReverseGeocode(ctx, req.Latitude, req.Longitude)
		if err != nil {
			c.logger.Warn("Reverse geocoding failed", zap.Error(err))
		}
		req.Address = addr
	}
	if req.Address == "" {
		return nil, fmt.Errorf("%w: address is required", ErrValidation)
	}

	// Decode the image up front so an oversize payload fails before
	// anything is written.
	var image []byte
	var imageErr error
	if req.ImageData != "" {
		var err error
		image, err = decodeImagePayload(req.ImageData)
		if err != nil {
			if errors.Is(err, ErrImageTooLarge) {
				return nil, err
			}
			imageErr = err
			c.logger.Warn("Ignoring undecodable image payload", zap.Error(err))
		}
	}

	id, err := c.allocateID(ctx)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	t := &model.Toilet{
		ID:          id,
		Name:        req.Name,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Description: req.Description,
		IsFree:      req.IsFree,
		Images:      []string{},
		CreatedAt:   now.Format(time.RFC3339),
		UpdatedAt:   now.Format(time.RFC3339),
	}

	rev, err := c.store.Put(ctx, recordPath(id), codec.Encode(t), "", "Add new toilet: "+t.Name)
	if err != nil {
		return nil, c.mapStoreError(err)
	}
	c.logger.Info("Created toilet record", zap.String(logging.FieldToiletID, string(id)))

	if image != nil {
		url, err := c.uploadImage(ctx, image, imageName(id, now, false), "Add image for toilet: "+t.Name)
		if err != nil {
			return &CreateResult{Toilet: t, ImageErr: err}, nil
		}
		t.Images = []string{url}
		if _, err := c.store.Put(ctx, recordPath(id), codec.Encode(t), rev, fmt.Sprintf("Update toilet %s with image", t.Name)); err != nil {
			// The image blob is now orphaned garbage, which is
			// acceptable; the record itself is intact without it.
			t.Images = []string{}
			return &CreateResult{Toilet: t, ImageErr: c.mapStoreError(err)}, nil
		}
	}
	return &CreateResult{Toilet: t, ImageErr: imageErr}, nil
}

// Update merges a typed partial update over the stored record and rewrites
// it under the revision read at the start. Removed image indices are
// filtered out; a new image is uploaded and appended. An oversize image
// aborts before the write, other image failures are non-fatal.
func (c *Controller) Update(ctx context.Context, id model.ToiletID, upd *model.ToiletUpdate) (*UpdateResult, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Controller/Update")
	defer span.End()

	t, rev, err := c.read(ctx, id)
	if err != nil {
		return nil, err
	}
	upd.Apply(t)

	if len(upd.RemovedImages) > 0 {
		removed := map[int]bool{}
		for _, i := range upd.RemovedImages {
			removed[i] = true
		}
		kept := make([]string, 0, len(t.Images))
		for i, url := range t.Images {
			if !removed[i] {
				kept = append(kept, url)
			}
		}
		t.Images = kept
	}

	now := c.now().UTC()
	var imageErr error
	if upd.ImageData != "" {
		image, err := decodeImagePayload(upd.ImageData)
		if err != nil {
			if errors.Is(err, ErrImageTooLarge) {
				return nil, err
			}
			imageErr = err
		} else {
			url, err := c.uploadImage(ctx, image, imageName(id, now, true), "Update image for toilet: "+t.Name)
			if err != nil {
				imageErr = err
			} else {
				t.Images = append(t.Images, url)
			}
		}
	}

	t.UpdatedAt = now.Format(time.RFC3339)
	if _, err := c.store.Put(ctx, recordPath(id), codec.Encode(t), rev, "Update toilet: "+t.Name); err != nil {
		return nil, c.mapStoreError(err)
	}
	return &UpdateResult{Toilet: t, ImageErr: imageErr}, nil
}

// Vote applies a like/dislike transition. prior is the caller's previous
// vote for this record, VoteNone when absent. Re-casting the same vote
// changes nothing and skips the write entirely.
func (c *Controller) Vote(ctx context.Context, id model.ToiletID, vote, prior model.VoteKind) (*model.Toilet, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Controller/Vote")
	defer span.End()

	if !vote.Valid() {
		return nil, fmt.Errorf("%w: unknown vote kind %q", ErrValidation, vote)
	}
	t, rev, err := c.read(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rating.ApplyVote(t, vote, prior, c.now()) {
		return t, nil
	}
	if _, err := c.store.Put(ctx, recordPath(id), codec.Encode(t), rev, fmt.Sprintf("Update toilet %s: %s", id, vote)); err != nil {
		return nil, c.mapStoreError(err)
	}
	return t, nil
}

// Delete permanently removes a record. There is no soft delete; the freed
// id becomes allocatable again.
func (c *Controller) Delete(ctx context.Context, id model.ToiletID) error {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Controller/Delete")
	defer span.End()

	obj, err := c.store.Get(ctx, recordPath(id))
	if err != nil {
		return c.mapStoreError(err)
	}
	if err := c.store.Delete(ctx, recordPath(id), obj.Revision, fmt.Sprintf("Delete toilet %s", id)); err != nil {
		return c.mapStoreError(err)
	}
	c.logger.Info("Deleted toilet record", zap.String(logging.FieldToiletID, string(id)))
	return nil
}

// List loads every persisted record. Records that fail to decode are
// logged and skipped; one bad blob never fails the whole load.
func (c *Controller) List(ctx context.Context) ([]*model.Toilet, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Controller/List")
	defer span.End()

	entries, err := c.store.List(ctx, recordsDir)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return []*model.Toilet{}, nil
		}
		return nil, err
	}
	toilets := make([]*model.Toilet, 0, len(entries))
	for _, e := range entries {
		if !e.IsFile || !strings.HasSuffix(e.Name, ".md") {
			continue
		}
		obj, err := c.store.Get(ctx, recordsDir+"/"+e.Name)
		if err != nil {
			c.logger.Warn("Failed to load record blob", zap.String(logging.FieldPath, e.Name), zap.Error(err))
			continue
		}
		t, err := codec.Decode(obj.Content)
		if err != nil {
			c.logger.Warn("Discarding undecodable record", zap.String(logging.FieldPath, e.Name), zap.Error(err))
			continue
		}
		toilets = append(toilets, t)
	}
	sort.Slice(toilets, func(i, j int) bool {
		a, _ := strconv.Atoi(string(toilets[i].ID))
		b, _ := strconv.Atoi(string(toilets[j].ID))
		return a < b
	})
	return toilets, nil
}

// read fetches and decodes one record along with its revision token.
func (c *Controller) read(ctx context.Context, id model.ToiletID) (*model.Toilet, string, error) {
	obj, err := c.store.Get(ctx, recordPath(id))
	if err != nil {
		return nil, "", c.mapStoreError(err)
	}
	t, err := codec.Decode(obj.Content)
	if err != nil {
		return nil, "", err
	}
	return t, obj.Revision, nil
}

// allocateID lists the records directory and gap-fills the smallest free
// positive integer. Listing and writing are not transactional, so two
// concurrent creates can race for the same id; the store's existence
// check turns the loser into ErrConflict.
func (c *Controller) allocateID(ctx context.Context) (model.ToiletID, error) {
	entries, err := c.store.List(ctx, recordsDir)
	if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		return "", err
	}
	var ids []int
	for _, e := range entries {
		if !e.IsFile || !strings.HasSuffix(e.Name, ".md") {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSuffix(e.Name, ".md")); err == nil {
			ids = append(ids, n)
		}
	}
	return model.ToiletID(strconv.Itoa(rating.NextID(ids))), nil
}

func (c *Controller) uploadImage(ctx context.Context, image []byte, name, message string) (string, error) {
	path := imagesDir + "/" + name
	if _, err := c.store.Put(ctx, path, image, "", message); err != nil {
		c.logger.Warn("Image upload failed", zap.String(logging.FieldPath, path), zap.Error(err))
		return "", c.mapStoreError(err)
	}
	return c.store.PublicURL(path), nil
}

func (c *Controller) mapStoreError(err error) error {
	switch {
	case errors.Is(err, blobstore.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, blobstore.ErrConflict):
		return ErrConflict
	}
	return err
}

func recordPath(id model.ToiletID) string {
	return fmt.Sprintf("%s/%s.md", recordsDir, id)
}

func imageName(id model.ToiletID, now time.Time, edit bool) string {
	if edit {
		return fmt.Sprintf("toilet-%s-edit-%d.jpg", id, now.UnixMilli())
	}
	return fmt.Sprintf("toilet-%s-%d.jpg", id, now.UnixMilli())
}

// decodeImagePayload decodes a data-URL image ("data:image/jpeg;base64,...")
// or a bare base64 string, enforcing the size ceiling.
func decodeImagePayload(data string) ([]byte, error) {
	if _, rest, ok := strings.Cut(data, ","); ok {
		data = rest
	}
	image, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	if len(image) > MaxImageBytes {
		return nil, fmt.Errorf("%w: %.2fMB exceeds the %dMB limit",
			ErrImageTooLarge, float64(len(image))/(1024*1024), MaxImageBytes/(1024*1024))
	}
	return image, nil
}
