// Package alloc provides deduplicating identifier allocators for COCO entities.
//
// Each allocator hands out dense integer ids: a new id is one more than the
// largest id allocated so far, or zero for an empty allocator. Images and
// categories are deduplicated by their natural key (file name and name
// respectively); the first write for a key wins. Annotations are never
// deduplicated.
//
// Allocators are not safe for concurrent use.
package alloc

import (
	"github.com/hupe1980/cocogo"
)

// counter tracks the next free id.
type counter struct {
	next int
}

func (c *counter) observe(id int) {
	if id >= c.next {
		c.next = id + 1
	}
}

func (c *counter) allocate() int {
	id := c.next
	c.next++
	return id
}

// keyIndex maps a natural key to the positions of the entries carrying it.
type keyIndex map[string][]int

func (k keyIndex) lookup(kind, key string) (int, bool, error) {
	positions := k[key]
	switch len(positions) {
	case 0:
		return 0, false, nil
	case 1:
		return positions[0], true, nil
	default:
		return 0, false, &cocogo.AllocationInvariantError{Kind: kind, Key: key, Matches: len(positions)}
	}
}

// ImageAttrs carries the optional attributes of a newly allocated image.
type ImageAttrs struct {
	Width        *int
	Height       *int
	DateCaptured *string
	License      *int
}

// Images allocates image ids keyed by file name.
type Images struct {
	images []cocogo.Image
	byName keyIndex
	ids    counter
}

// NewImages creates an image allocator seeded with existing images.
func NewImages(seed ...cocogo.Image) *Images {
	a := &Images{
		images: make([]cocogo.Image, 0, len(seed)),
		byName: make(keyIndex, len(seed)),
	}
	for _, im := range seed {
		a.byName[im.FileName] = append(a.byName[im.FileName], len(a.images))
		a.images = append(a.images, im)
		a.ids.observe(im.ID)
	}
	return a
}

// GetOrAddID returns the id of the image named fileName, allocating a new
// image with the given location and attributes if there is none.
//
// The attributes of an existing image are never updated.
func (a *Images) GetOrAddID(fileName, location string, attrs ImageAttrs) (int, error) {
	pos, ok, err := a.byName.lookup("image", fileName)
	if err != nil {
		return 0, err
	}
	if ok {
		return a.images[pos].ID, nil
	}

	im := cocogo.Image{
		ID:           a.ids.allocate(),
		FileName:     fileName,
		CocoURL:      location,
		Width:        attrs.Width,
		Height:       attrs.Height,
		DateCaptured: attrs.DateCaptured,
		License:      attrs.License,
	}
	a.byName[fileName] = append(a.byName[fileName], len(a.images))
	a.images = append(a.images, im)
	return im.ID, nil
}

// Images returns a copy of the allocated images in allocation order.
func (a *Images) Images() []cocogo.Image {
	out := make([]cocogo.Image, len(a.images))
	copy(out, a.images)
	return out
}

// Len returns the number of images.
func (a *Images) Len() int { return len(a.images) }

// Categories allocates category ids keyed by name.
type Categories struct {
	categories []cocogo.Category
	byName     keyIndex
	ids        counter
}

// NewCategories creates a category allocator seeded with existing categories.
func NewCategories(seed ...cocogo.Category) *Categories {
	a := &Categories{
		categories: make([]cocogo.Category, 0, len(seed)),
		byName:     make(keyIndex, len(seed)),
	}
	for _, c := range seed {
		a.byName[c.Name] = append(a.byName[c.Name], len(a.categories))
		a.categories = append(a.categories, c)
		a.ids.observe(c.ID)
	}
	return a
}

// GetOrAddID returns the id of the category called name, allocating a new
// category if there is none.
func (a *Categories) GetOrAddID(name string, supercategory *string) (int, error) {
	pos, ok, err := a.byName.lookup("category", name)
	if err != nil {
		return 0, err
	}
	if ok {
		return a.categories[pos].ID, nil
	}

	c := cocogo.Category{
		ID:            a.ids.allocate(),
		Name:          name,
		Supercategory: supercategory,
	}
	a.byName[name] = append(a.byName[name], len(a.categories))
	a.categories = append(a.categories, c)
	return c.ID, nil
}

// Categories returns a copy of the allocated categories in allocation order.
func (a *Categories) Categories() []cocogo.Category {
	out := make([]cocogo.Category, len(a.categories))
	copy(out, a.categories)
	return out
}

// Len returns the number of categories.
func (a *Categories) Len() int { return len(a.categories) }

// AnnotationAttrs carries the optional attributes of a new annotation.
type AnnotationAttrs struct {
	BBox         *cocogo.BBox
	Area         *float64
	Segmentation []any
	IsCrowd      *int
}

// Annotations allocates annotation ids.
type Annotations struct {
	annotations []cocogo.Annotation
	ids         counter
}

// NewAnnotations creates an annotation allocator seeded with existing annotations.
func NewAnnotations(seed ...cocogo.Annotation) *Annotations {
	a := &Annotations{
		annotations: make([]cocogo.Annotation, 0, len(seed)),
	}
	for _, ann := range seed {
		a.annotations = append(a.annotations, ann)
		a.ids.observe(ann.ID)
	}
	return a
}

// AddID appends a new annotation linking imageID and categoryID and returns its id.
func (a *Annotations) AddID(imageID, categoryID int, attrs AnnotationAttrs) int {
	ann := cocogo.Annotation{
		ID:           a.ids.allocate(),
		ImageID:      imageID,
		CategoryID:   categoryID,
		BBox:         attrs.BBox,
		Area:         attrs.Area,
		Segmentation: attrs.Segmentation,
		IsCrowd:      attrs.IsCrowd,
	}
	a.annotations = append(a.annotations, ann)
	return ann.ID
}

// Annotations returns a copy of the allocated annotations in allocation order.
func (a *Annotations) Annotations() []cocogo.Annotation {
	out := make([]cocogo.Annotation, len(a.annotations))
	copy(out, a.annotations)
	return out
}

// Len returns the number of annotations.
func (a *Annotations) Len() int { return len(a.annotations) }
