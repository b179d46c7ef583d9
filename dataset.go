package cocogo

import (
	"context"
	"fmt"
	"math/rand/v2"
	"reflect"
	"slices"
	"sort"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// DefaultTrainRatio is the share of annotations assigned to the training split.
const DefaultTrainRatio = 0.8

// Dataset is an immutable COCO entity graph.
//
// It owns copies of its collections and keeps id→entity lookup indices that
// are rebuilt on every construction. Transformations return new datasets.
type Dataset struct {
	info        Info
	images      []Image
	categories  []Category
	annotations []Annotation
	licenses    []License

	ims  map[int]Image
	cats map[int]Category
	anns map[int]Annotation

	logger *Logger
}

// New validates the given collections and builds a Dataset.
//
// It fails with a *SchemaError when an entity is invalid or when an identifier
// occurs twice in a collection. The duplicate check is stricter than what a
// document needs to load structurally: hand-built collections with repeated
// ids are rejected here rather than trusted, because the id indices require
// unique keys. Referential integrity between annotations and
// images/categories is not checked; use CheckReferences for that.
func New(info Info, images []Image, categories []Category, annotations []Annotation, licenses []License, optFns ...Option) (*Dataset, error) {
	o := applyOptions(optFns)
	return newDataset(info, images, categories, annotations, licenses, o.logger)
}

func newDataset(info Info, images []Image, categories []Category, annotations []Annotation, licenses []License, logger *Logger) (*Dataset, error) {
	if err := info.Validate(); err != nil {
		return nil, withPath("info", err)
	}

	d := &Dataset{
		info:        info,
		images:      slices.Clone(images),
		categories:  slices.Clone(categories),
		annotations: slices.Clone(annotations),
		logger:      logger,
	}
	if d.images == nil {
		d.images = []Image{}
	}
	if d.categories == nil {
		d.categories = []Category{}
	}
	if d.annotations == nil {
		d.annotations = []Annotation{}
	}
	// An empty segmentation is not serialized, so it is stored as absent.
	for i := range d.annotations {
		if len(d.annotations[i].Segmentation) == 0 {
			d.annotations[i].Segmentation = nil
		}
	}
	if len(licenses) > 0 {
		d.licenses = slices.Clone(licenses)
	}

	var err error
	if d.ims, err = buildIndex("images", d.images, func(im Image) int { return im.ID }); err != nil {
		return nil, err
	}
	if d.cats, err = buildIndex("categories", d.categories, func(c Category) int { return c.ID }); err != nil {
		return nil, err
	}
	if d.anns, err = buildIndex("annotations", d.annotations, func(a Annotation) int { return a.ID }); err != nil {
		return nil, err
	}
	for i, l := range d.licenses {
		if err := l.Validate(); err != nil {
			return nil, withPath(fmt.Sprintf("licenses[%d]", i), err)
		}
	}
	return d, nil
}

type validator interface {
	Validate() error
}

func buildIndex[T validator](name string, items []T, id func(T) int) (map[int]T, error) {
	index := make(map[int]T, len(items))
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, withPath(fmt.Sprintf("%s[%d]", name, i), err)
		}
		key := id(item)
		if _, ok := index[key]; ok {
			return nil, newSchemaError(fmt.Sprintf("%s[%d].id", name, i), fmt.Sprintf("duplicate id %d", key), nil)
		}
		index[key] = item
	}
	return index, nil
}

// Info returns the dataset metadata.
func (d *Dataset) Info() Info { return d.info }

// Images returns a copy of the image collection.
func (d *Dataset) Images() []Image { return slices.Clone(d.images) }

// Categories returns a copy of the category collection.
func (d *Dataset) Categories() []Category { return slices.Clone(d.categories) }

// Annotations returns a copy of the annotation collection.
func (d *Dataset) Annotations() []Annotation { return slices.Clone(d.annotations) }

// Licenses returns a copy of the license collection, or nil if there is none.
func (d *Dataset) Licenses() []License { return slices.Clone(d.licenses) }

// Image looks up an image by id.
func (d *Dataset) Image(id int) (Image, bool) {
	im, ok := d.ims[id]
	return im, ok
}

// Category looks up a category by id.
func (d *Dataset) Category(id int) (Category, bool) {
	c, ok := d.cats[id]
	return c, ok
}

// Annotation looks up an annotation by id.
func (d *Dataset) Annotation(id int) (Annotation, bool) {
	a, ok := d.anns[id]
	return a, ok
}

// Equal reports whether both datasets hold the same entities in the same order.
func (d *Dataset) Equal(other *Dataset) bool {
	if d == nil || other == nil {
		return d == other
	}
	return reflect.DeepEqual(d.info, other.info) &&
		reflect.DeepEqual(d.images, other.images) &&
		reflect.DeepEqual(d.categories, other.categories) &&
		reflect.DeepEqual(d.annotations, other.annotations) &&
		reflect.DeepEqual(d.licenses, other.licenses)
}

// CheckReferences verifies that every annotation references an existing
// image and category.
func (d *Dataset) CheckReferences() error {
	for _, ann := range d.annotations {
		if _, _, err := d.resolve(ann); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dataset) resolve(ann Annotation) (Image, Category, error) {
	im, ok := d.ims[ann.ImageID]
	if !ok {
		return Image{}, Category{}, fmt.Errorf("%w: annotation %d references unknown image %d", ErrDanglingReference, ann.ID, ann.ImageID)
	}
	cat, ok := d.cats[ann.CategoryID]
	if !ok {
		return Image{}, Category{}, fmt.Errorf("%w: annotation %d references unknown category %d", ErrDanglingReference, ann.ID, ann.CategoryID)
	}
	return im, cat, nil
}

// derive builds a dataset sharing info, categories and licenses with d.
func (d *Dataset) derive(images []Image, categories []Category, annotations []Annotation) (*Dataset, error) {
	return newDataset(d.info, images, categories, annotations, d.licenses, d.logger)
}

// Filter removes every annotation whose image file name is in blockList.
//
// The result holds exactly the images referenced by the surviving
// annotations, each once, in order of first reference. Categories, info
// and licenses are copied unchanged. Every dropped annotation is logged.
func (d *Dataset) Filter(blockList []string) (*Dataset, error) {
	blocked := make(map[string]struct{}, len(blockList))
	for _, name := range blockList {
		blocked[name] = struct{}{}
	}

	ctx := context.Background()
	seen := roaring64.New()
	var (
		images      []Image
		annotations []Annotation
	)
	for _, ann := range d.annotations {
		im, cat, err := d.resolve(ann)
		if err != nil {
			return nil, err
		}
		if _, drop := blocked[im.FileName]; drop {
			d.logger.LogDropped(ctx, im.FileName, cat.Name)
			continue
		}
		annotations = append(annotations, ann)
		if seen.CheckedAdd(uint64(im.ID)) {
			images = append(images, im)
		}
	}

	return d.derive(images, d.categories, annotations)
}

// MergeClasses renames categories according to mapping.
//
// The key set of mapping must equal the set of category names in the
// dataset; otherwise a *ValidationError reporting the difference is
// returned. Categories mapped to the same name collapse into one. New
// category ids are dense and zero-based, assigned in order of first
// appearance while scanning the annotations. All other annotation fields,
// images, info and licenses pass through unchanged.
func (d *Dataset) MergeClasses(mapping map[string]string) (*Dataset, error) {
	if err := d.checkMapping(mapping); err != nil {
		return nil, err
	}

	newIDs := make(map[string]int)
	var (
		categories  []Category
		annotations = make([]Annotation, 0, len(d.annotations))
	)
	for _, ann := range d.annotations {
		cat, ok := d.cats[ann.CategoryID]
		if !ok {
			return nil, fmt.Errorf("%w: annotation %d references unknown category %d", ErrDanglingReference, ann.ID, ann.CategoryID)
		}
		newName := mapping[cat.Name]

		id, ok := newIDs[newName]
		if !ok {
			id = len(categories)
			newIDs[newName] = id
			categories = append(categories, Category{ID: id, Name: newName})
		}

		ann.CategoryID = id
		annotations = append(annotations, ann)
	}

	return d.derive(d.images, categories, annotations)
}

func (d *Dataset) checkMapping(mapping map[string]string) error {
	existing := make(map[string]struct{}, len(d.categories))
	for _, c := range d.categories {
		existing[c.Name] = struct{}{}
	}

	var missing, unknown []string
	for name := range existing {
		if _, ok := mapping[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range mapping {
		if _, ok := existing[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(missing) == 0 && len(unknown) == 0 {
		return nil
	}

	sort.Strings(missing)
	sort.Strings(unknown)
	return &ValidationError{
		Field:   "mapping",
		Reason:  "mapping and dataset categories don't match",
		Missing: missing,
		Unknown: unknown,
	}
}

// TrainTestSplit randomly partitions the annotations into a training and a
// test dataset. The training split receives floor(n*trainRatio) annotations.
//
// The receiver is not modified. Each split keeps the ids of the original
// entities and holds the images its annotations reference, so an image can
// appear in both splits. The partition is not reproducible between calls.
func (d *Dataset) TrainTestSplit(trainRatio float64) (train, test *Dataset, err error) {
	if !(trainRatio > 0 && trainRatio <= 1) {
		return nil, nil, &ValidationError{
			Field:  "train_ratio",
			Reason: fmt.Sprintf("must be in (0, 1], got %v", trainRatio),
		}
	}

	shuffled := slices.Clone(d.annotations)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cutoff := int(float64(len(shuffled)) * trainRatio)

	train, err = d.subset(shuffled[:cutoff])
	if err != nil {
		return nil, nil, err
	}
	test, err = d.subset(shuffled[cutoff:])
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

// subset builds a dataset from annotations and the images they reference.
func (d *Dataset) subset(annotations []Annotation) (*Dataset, error) {
	seen := roaring64.New()
	var images []Image
	for _, ann := range annotations {
		im, ok := d.ims[ann.ImageID]
		if !ok {
			return nil, fmt.Errorf("%w: annotation %d references unknown image %d", ErrDanglingReference, ann.ID, ann.ImageID)
		}
		if seen.CheckedAdd(uint64(im.ID)) {
			images = append(images, im)
		}
	}
	return d.derive(images, d.categories, annotations)
}

// Stats summarizes the size of a dataset.
type Stats struct {
	Images      int
	Categories  int
	Annotations int
	Licenses    int
	// PerCategory counts annotations by category name.
	PerCategory map[string]int
}

// Stats returns collection sizes and per-category annotation counts.
func (d *Dataset) Stats() Stats {
	s := Stats{
		Images:      len(d.images),
		Categories:  len(d.categories),
		Annotations: len(d.annotations),
		Licenses:    len(d.licenses),
		PerCategory: make(map[string]int, len(d.categories)),
	}
	for _, c := range d.categories {
		s.PerCategory[c.Name] = 0
	}
	for _, ann := range d.annotations {
		if c, ok := d.cats[ann.CategoryID]; ok {
			s.PerCategory[c.Name]++
		}
	}
	return s
}

func withPath(prefix string, err error) error {
	se, ok := err.(*SchemaError)
	if !ok {
		return err
	}
	path := prefix
	if se.Path != "" {
		path = prefix + "." + se.Path
	}
	return &SchemaError{Path: path, Reason: se.Reason, cause: se.cause}
}
