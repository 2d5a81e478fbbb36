package services

import (
	"hash/fnv"
	"math"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/sartoria/vetrina/pkg/models"
)

// FeatureDimensions is the fixed width of a product feature vector:
// [category_index, price, rating, log1p(reviews), color_count, size_count,
// sub_category_index].
const FeatureDimensions = 7

// CategoryVocabulary enumerates the categories and sub-categories observed
// in a catalog snapshot. Index 0 is reserved for unknown values so that a
// missing sub-category never collides with a real one, which hash-mod
// encodings cannot guarantee.
type CategoryVocabulary struct {
	categories    map[string]int
	subCategories map[string]int
}

func NewCategoryVocabulary(products []models.Product) *CategoryVocabulary {
	categorySet := make(map[string]struct{})
	subCategorySet := make(map[string]struct{})
	for i := range products {
		categorySet[products[i].Category] = struct{}{}
		if products[i].SubCategory != nil {
			subCategorySet[*products[i].SubCategory] = struct{}{}
		}
	}

	vocab := &CategoryVocabulary{
		categories:    indexSorted(categorySet),
		subCategories: indexSorted(subCategorySet),
	}
	return vocab
}

// indexSorted assigns indices 1..n in lexical order; deterministic for a
// fixed snapshot.
func indexSorted(set map[string]struct{}) map[string]int {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	index := make(map[string]int, len(keys))
	for i, k := range keys {
		index[k] = i + 1
	}
	return index
}

func (v *CategoryVocabulary) CategoryIndex(category string) int {
	return v.categories[category] // unknown -> 0
}

func (v *CategoryVocabulary) SubCategoryIndex(subCategory *string) int {
	if subCategory == nil {
		return 0
	}
	return v.subCategories[*subCategory]
}

// FeatureExtractor maps one product onto the fixed feature vector. It is
// pure: no side effects, no failure path, deterministic for a fixed
// vocabulary.
type FeatureExtractor struct {
	vocab *CategoryVocabulary
}

func NewFeatureExtractor(vocab *CategoryVocabulary) *FeatureExtractor {
	return &FeatureExtractor{vocab: vocab}
}

func (e *FeatureExtractor) Extract(p *models.Product) []float64 {
	return []float64{
		float64(e.vocab.CategoryIndex(p.Category)),
		p.Price,
		p.Rating,
		math.Log1p(float64(p.Reviews)), // dampens review-count outliers
		float64(len(p.Colors)),
		float64(len(p.Sizes)),
		float64(e.vocab.SubCategoryIndex(p.SubCategory)),
	}
}

// FeatureMatrix is the normalized feature matrix of one catalog snapshot,
// rows aligned with ProductIDs.
type FeatureMatrix struct {
	Data       *mat.Dense
	ProductIDs []string
	rowIndex   map[string]int
}

// Row returns the feature row for a product id, or false when the id is
// not part of the snapshot.
func (fm *FeatureMatrix) Row(productID string) ([]float64, bool) {
	idx, ok := fm.rowIndex[productID]
	if !ok {
		return nil, false
	}
	return fm.RowAt(idx), true
}

func (fm *FeatureMatrix) RowAt(i int) []float64 {
	row := make([]float64, FeatureDimensions)
	mat.Row(row, i, fm.Data)
	return row
}

func (fm *FeatureMatrix) Rows() int {
	rows, _ := fm.Data.Dims()
	return rows
}

// FeatureService builds feature matrices from catalog snapshots. The last
// built matrix is kept keyed by a snapshot checksum, so repeated requests
// against an unchanged catalog skip the rebuild; any catalog write changes
// the checksum and invalidates the entry.
type FeatureService struct {
	logger *logrus.Logger

	mu       sync.RWMutex
	checksum uint64
	cached   *FeatureMatrix
}

func NewFeatureService(logger *logrus.Logger) *FeatureService {
	return &FeatureService{logger: logger}
}

// BuildMatrix extracts and column-standardizes features for the snapshot.
// Fewer than two products would make the variance degenerate, so raw
// features are returned in that case.
func (s *FeatureService) BuildMatrix(products []models.Product) *FeatureMatrix {
	sum := snapshotChecksum(products)

	s.mu.RLock()
	if s.cached != nil && s.checksum == sum {
		cached := s.cached
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	matrix := buildMatrix(products)

	s.mu.Lock()
	s.checksum = sum
	s.cached = matrix
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"products": len(products),
		"checksum": sum,
	}).Debug("Rebuilt feature matrix")

	return matrix
}

func buildMatrix(products []models.Product) *FeatureMatrix {
	vocab := NewCategoryVocabulary(products)
	extractor := NewFeatureExtractor(vocab)

	n := len(products)
	data := mat.NewDense(maxInt(n, 1), FeatureDimensions, nil)
	ids := make([]string, n)
	rowIndex := make(map[string]int, n)

	for i := range products {
		data.SetRow(i, extractor.Extract(&products[i]))
		ids[i] = products[i].ID
		rowIndex[products[i].ID] = i
	}

	if n >= 2 {
		standardizeColumns(data, n)
	}

	return &FeatureMatrix{
		Data:       data,
		ProductIDs: ids,
		rowIndex:   rowIndex,
	}
}

// standardizeColumns rescales each column to zero mean and unit variance.
// Constant columns are only centered.
func standardizeColumns(data *mat.Dense, rows int) {
	col := make([]float64, rows)
	for j := 0; j < FeatureDimensions; j++ {
		mat.Col(col, j, data)
		mean, std := stat.MeanStdDev(col, nil)
		for i := 0; i < rows; i++ {
			v := col[i] - mean
			if std > 0 {
				v /= std
			}
			data.Set(i, j, v)
		}
	}
}

// snapshotChecksum fingerprints a catalog snapshot. Ids plus update times
// are enough: any insert, delete or update shifts the sum.
func snapshotChecksum(products []models.Product) uint64 {
	h := fnv.New64a()
	for i := range products {
		h.Write([]byte(products[i].ID))
		var ts [8]byte
		nano := products[i].UpdatedAt.UnixNano()
		for b := 0; b < 8; b++ {
			ts[b] = byte(nano >> (8 * b))
		}
		h.Write(ts[:])
	}
	return h.Sum64()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
