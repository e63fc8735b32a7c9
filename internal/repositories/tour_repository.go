package repositories

import (
	"errors"
	"time"

	"natours_backend/internal/models"
	"natours_backend/internal/query"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTourNotFound      = errors.New("tour not found")
	ErrTourAlreadyExists = errors.New("tour with this name already exists")
)

// Средний радиус Земли, который используется для перевода углового расстояния
const (
	EarthRadiusMeters = 6378100.0
	EarthRadiusMiles  = 3963.2
	EarthRadiusKm     = 6378.1
)

// haversine - угловое расстояние (в радианах) от @lat/@lng до точки старта тура
const haversine = `2 * ASIN(SQRT(
	POWER(SIN(RADIANS(start_location_lat - @lat) / 2), 2) +
	COS(RADIANS(@lat)) * COS(RADIANS(start_location_lat)) *
	POWER(SIN(RADIANS(start_location_lng - @lng) / 2), 2)))`

type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

type MonthlyPlan struct {
	Month         int            `json:"month"`
	NumTourStarts int            `json:"numTourStarts"`
	Tours         pq.StringArray `gorm:"type:text[]" json:"tours"`
}

type TourDistance struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

type TourRepository interface {
	Create(db *gorm.DB, tour *models.Tour) error
	FindByID(db *gorm.DB, id string) (*models.Tour, error)
	FindDetailed(db *gorm.DB, id string) (*models.Tour, error)
	FindBySlug(db *gorm.DB, slug string) (*models.Tour, error)
	FindByIDs(db *gorm.DB, ids []string) ([]models.Tour, error)
	Update(db *gorm.DB, tour *models.Tour) error
	ReplaceGuides(db *gorm.DB, tour *models.Tour, guides []models.User) error
	Delete(db *gorm.DB, id string) error
	List(db *gorm.DB, spec *query.Spec, maxLimit int) ([]models.Tour, error)
	ListPublic(db *gorm.DB) ([]models.Tour, error)

	// Агрегаты
	Stats(db *gorm.DB) ([]TourStats, error)
	MonthlyPlan(db *gorm.DB, year int) ([]MonthlyPlan, error)
	Within(db *gorm.DB, lat, lng, radiusRadians float64) ([]models.Tour, error)
	Distances(db *gorm.DB, lat, lng, multiplier float64) ([]TourDistance, error)

	// Рейтинги
	UpdateRatings(db *gorm.DB, tourID string) error
	RecomputeAllRatings(db *gorm.DB) (int64, error)
}

type TourRepositoryImpl struct{}

func NewTourRepository() TourRepository {
	return &TourRepositoryImpl{}
}

// PublicTours скрывает секретные туры из всех публичных выборок и агрегатов
func PublicTours(db *gorm.DB) *gorm.DB {
	return db.Where("secret_tour = ?", false)
}

func (r *TourRepositoryImpl) Create(db *gorm.DB, tour *models.Tour) error {
	tour.Slug = models.Slugify(tour.Name)
	if tour.RatingsAverage == 0 {
		tour.RatingsAverage = models.DefaultRatingsAverage
	}
	err := db.Omit("Guides.*").Create(tour).Error
	if IsUniqueViolation(err) {
		return ErrTourAlreadyExists
	}
	return err
}

func (r *TourRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Tour, error) {
	var tour models.Tour
	err := db.Scopes(PublicTours).First(&tour, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, ErrTourNotFound)
	}
	return &tour, nil
}

// FindDetailed загружает тур вместе с гидами и отзывами (отзывы - с автором)
func (r *TourRepositoryImpl) FindDetailed(db *gorm.DB, id string) (*models.Tour, error) {
	return r.findDetailed(db, "id = ?", id)
}

func (r *TourRepositoryImpl) FindBySlug(db *gorm.DB, slug string) (*models.Tour, error) {
	return r.findDetailed(db, "slug = ?", slug)
}

func (r *TourRepositoryImpl) findDetailed(db *gorm.DB, cond string, arg interface{}) (*models.Tour, error) {
	var tour models.Tour
	err := db.Scopes(PublicTours).
		Preload("Guides", ActiveUsers).
		Preload("Reviews", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at DESC") }).
		Preload("Reviews.User").
		Where(cond, arg).
		First(&tour).Error
	if err != nil {
		return nil, translate(err, ErrTourNotFound)
	}
	return &tour, nil
}

func (r *TourRepositoryImpl) FindByIDs(db *gorm.DB, ids []string) ([]models.Tour, error) {
	var tours []models.Tour
	if len(ids) == 0 {
		return tours, nil
	}
	err := db.Where("id IN ?", ids).Order("created_at DESC").Find(&tours).Error
	return tours, err
}

// Update сохраняет тур и увеличивает номер ревизии. Slug пересчитывается из имени.
func (r *TourRepositoryImpl) Update(db *gorm.DB, tour *models.Tour) error {
	tour.Slug = models.Slugify(tour.Name)
	tour.RatingsAverage = models.RoundRating(tour.RatingsAverage)

	result := db.Model(tour).
		Select("*").
		Omit("CreatedAt", "Guides", "Reviews", "Version").
		Updates(tour)
	if result.Error != nil {
		if IsUniqueViolation(result.Error) {
			return ErrTourAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTourNotFound
	}

	return db.Model(tour).UpdateColumn("version", gorm.Expr("version + 1")).Error
}

func (r *TourRepositoryImpl) ReplaceGuides(db *gorm.DB, tour *models.Tour, guides []models.User) error {
	return db.Model(tour).Omit("Guides.*").Association("Guides").Replace(guides)
}

// Delete удаляет тур вместе с отзывами, бронированиями и связями с гидами
func (r *TourRepositoryImpl) Delete(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tour_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tour_id = ?", id).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM tour_guides WHERE tour_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Tour{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTourNotFound
		}
		return nil
	})
}

func (r *TourRepositoryImpl) List(db *gorm.DB, spec *query.Spec, maxLimit int) ([]models.Tour, error) {
	var tours []models.Tour
	err := query.New(db, &models.Tour{}, spec,
		query.WithMaxLimit(maxLimit),
		query.WithScope(PublicTours),
	).All().Find(&tours)
	return tours, err
}

func (r *TourRepositoryImpl) ListPublic(db *gorm.DB) ([]models.Tour, error) {
	var tours []models.Tour
	err := db.Scopes(PublicTours).Order("created_at").Find(&tours).Error
	return tours, err
}

func (r *TourRepositoryImpl) Stats(db *gorm.DB) ([]TourStats, error) {
	var stats []TourStats
	err := db.Model(&models.Tour{}).
		Scopes(PublicTours).
		Select(`UPPER(difficulty) AS difficulty,
			COUNT(*) AS num_tours,
			COALESCE(SUM(ratings_quantity), 0) AS num_ratings,
			AVG(ratings_average) AS avg_rating,
			AVG(price) AS avg_price,
			MIN(price) AS min_price,
			MAX(price) AS max_price`).
		Where("ratings_average >= ?", 4.5).
		Group("UPPER(difficulty)").
		Order("avg_price DESC").
		Scan(&stats).Error
	return stats, err
}

// MonthlyPlan раскладывает даты старта за год по месяцам
func (r *TourRepositoryImpl) MonthlyPlan(db *gorm.DB, year int) ([]MonthlyPlan, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	var plan []MonthlyPlan
	err := db.Raw(`
		SELECT EXTRACT(MONTH FROM d.start_date)::int AS month,
			COUNT(*) AS num_tour_starts,
			array_agg(t.name ORDER BY t.name) AS tours
		FROM tours t
		CROSS JOIN LATERAL (
			SELECT (value)::timestamptz AS start_date
			FROM jsonb_array_elements_text(t.start_dates::jsonb)
		) d
		WHERE t.secret_tour = false
			AND d.start_date >= @from AND d.start_date < @to
		GROUP BY month
		ORDER BY num_tour_starts DESC, month`,
		map[string]interface{}{"from": from, "to": to},
	).Scan(&plan).Error
	return plan, err
}

func (r *TourRepositoryImpl) Within(db *gorm.DB, lat, lng, radiusRadians float64) ([]models.Tour, error) {
	var tours []models.Tour
	err := db.Scopes(PublicTours).
		Where(haversine+" <= @radius", map[string]interface{}{
			"lat":    lat,
			"lng":    lng,
			"radius": radiusRadians,
		}).
		Find(&tours).Error
	return tours, err
}

// Distances: расстояние в метрах, умноженное на multiplier (мили или км)
func (r *TourRepositoryImpl) Distances(db *gorm.DB, lat, lng, multiplier float64) ([]TourDistance, error) {
	var distances []TourDistance
	err := db.Model(&models.Tour{}).
		Scopes(PublicTours).
		Select("id, name, "+haversine+" * @meters * @multiplier AS distance", map[string]interface{}{
			"lat":        lat,
			"lng":        lng,
			"meters":     EarthRadiusMeters,
			"multiplier": multiplier,
		}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "distance"}}).
		Scan(&distances).Error
	return distances, err
}

// UpdateRatings пересчитывает количество и средний рейтинг тура по его отзывам
func (r *TourRepositoryImpl) UpdateRatings(db *gorm.DB, tourID string) error {
	var agg struct {
		Quantity int
		Average  float64
	}
	err := db.Model(&models.Review{}).
		Select("COUNT(*) AS quantity, COALESCE(AVG(rating), 0) AS average").
		Where("tour_id = ?", tourID).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	average := models.DefaultRatingsAverage
	if agg.Quantity > 0 {
		average = models.RoundRating(agg.Average)
	}

	return db.Model(&models.Tour{}).
		Where("id = ?", tourID).
		UpdateColumns(map[string]interface{}{
			"ratings_quantity": agg.Quantity,
			"ratings_average":  average,
		}).Error
}

// RecomputeAllRatings сверяет агрегаты всех туров с таблицей отзывов
func (r *TourRepositoryImpl) RecomputeAllRatings(db *gorm.DB) (int64, error) {
	result := db.Exec(`
		UPDATE tours SET
			ratings_quantity = COALESCE(agg.quantity, 0),
			ratings_average = COALESCE(agg.average, ?)
		FROM tours t
		LEFT JOIN (
			SELECT tour_id, COUNT(*) AS quantity, ROUND(AVG(rating)::numeric, 1) AS average
			FROM reviews
			GROUP BY tour_id
		) agg ON agg.tour_id = t.id
		WHERE tours.id = t.id
			AND (tours.ratings_quantity <> COALESCE(agg.quantity, 0)
				OR tours.ratings_average <> COALESCE(agg.average, ?))`,
		models.DefaultRatingsAverage, models.DefaultRatingsAverage,
	)
	return result.RowsAffected, result.Error
}
