package adapters

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"secondchance_backend/internal/feature/items/domain/entity"
	"secondchance_backend/internal/feature/items/usecase"
)

const (
	// ItemsCollection はアイテムドキュメントのコレクション名です。
	ItemsCollection = "secondChanceItems"
	// CountersCollection は連番IDのカウンターを保持するコレクション名です。
	CountersCollection = "counters"
)

// itemDocument はsecondChanceItemsコレクションのドキュメント形式です。
// 連番IDは _id ではなく id フィールドに文字列で保存します。
type itemDocument struct {
	ObjectID    bson.ObjectID    `bson:"_id,omitempty"`
	ID          string           `bson:"id"`
	Name        string           `bson:"name"`
	Category    string           `bson:"category"`
	Condition   string           `bson:"condition"`
	PostedBy    string           `bson:"posted_by"`
	Zipcode     string           `bson:"zipcode"`
	DateAdded   int64            `bson:"date_added"`
	AgeDays     int              `bson:"age_days"`
	AgeYears    float64          `bson:"age_years"`
	Description string           `bson:"description"`
	Image       string           `bson:"image"`
	Comments    []entity.Comment `bson:"comments"`
	UpdatedAt   *time.Time       `bson:"updatedAt,omitempty"`
}

func toItemDocument(e entity.Item) itemDocument {
	return itemDocument{
		ID:          e.ID,
		Name:        e.Name,
		Category:    e.Category,
		Condition:   e.Condition,
		PostedBy:    e.PostedBy,
		Zipcode:     e.Zipcode,
		DateAdded:   e.DateAdded,
		AgeDays:     e.AgeDays,
		AgeYears:    e.AgeYears,
		Description: e.Description,
		Image:       e.Image,
		Comments:    e.Comments,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (d itemDocument) toEntity() entity.Item {
	comments := d.Comments
	if comments == nil {
		comments = []entity.Comment{}
	}
	return entity.Item{
		ID:          d.ID,
		Name:        d.Name,
		Category:    d.Category,
		Condition:   d.Condition,
		PostedBy:    d.PostedBy,
		Zipcode:     d.Zipcode,
		DateAdded:   d.DateAdded,
		AgeDays:     d.AgeDays,
		AgeYears:    d.AgeYears,
		Description: d.Description,
		Image:       d.Image,
		Comments:    comments,
		UpdatedAt:   d.UpdatedAt,
	}
}

type itemMongo struct {
	items    *mongo.Collection
	counters *mongo.Collection
}

var _ usecase.ItemRepository = (*itemMongo)(nil)

// NewItemMongo は指定されたデータベースを使うItemRepositoryを生成します。
func NewItemMongo(db *mongo.Database) *itemMongo {
	return &itemMongo{
		items:    db.Collection(ItemsCollection),
		counters: db.Collection(CountersCollection),
	}
}

// EnsureIndexes はidの一意インデックスを作成し、カウンターを既存の最大IDに合わせます。
func (r *itemMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.items.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("id_1")},
		{Keys: bson.D{{Key: "category", Value: 1}}, Options: options.Index().SetName("category_1")},
	})
	if err != nil {
		return fmt.Errorf("failed to create item indexes: %w", err)
	}
	return r.syncCounter(ctx)
}

func (r *itemMongo) List(ctx context.Context) ([]entity.Item, error) {
	return r.find(ctx, bson.D{})
}

func (r *itemMongo) FindByID(ctx context.Context, id string) (*entity.Item, error) {
	var doc itemDocument
	if err := r.items.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, usecase.ErrItemNotFound
		}
		return nil, err
	}
	it := doc.toEntity()
	return &it, nil
}

// Create はカウンターを$incして次のIDを原子的に採番し、ドキュメントを挿入します。
func (r *itemMongo) Create(ctx context.Context, item *entity.Item) error {
	seq, err := r.nextSeq(ctx)
	if err != nil {
		return err
	}
	item.ID = strconv.FormatInt(seq, 10)
	if _, err := r.items.InsertOne(ctx, toItemDocument(*item)); err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

func (r *itemMongo) Update(ctx context.Context, id string, upd entity.ItemUpdate, updatedAt time.Time) error {
	res, err := r.items.UpdateOne(ctx, bson.D{{Key: "id", Value: id}}, bson.D{{Key: "$set", Value: bson.D{
		{Key: "category", Value: upd.Category},
		{Key: "condition", Value: upd.Condition},
		{Key: "age_days", Value: upd.AgeDays},
		{Key: "age_years", Value: entity.AgeYearsFromDays(upd.AgeDays)},
		{Key: "description", Value: upd.Description},
		{Key: "updatedAt", Value: updatedAt},
	}}})
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if res.MatchedCount == 0 {
		return usecase.ErrItemNotFound
	}
	return nil
}

func (r *itemMongo) Delete(ctx context.Context, id string) error {
	res, err := r.items.DeleteOne(ctx, bson.D{{Key: "id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if res.DeletedCount == 0 {
		return usecase.ErrItemNotFound
	}
	return nil
}

// Search は名前を正規表現メタ文字をエスケープした大文字小文字無視の部分一致で検索します。
func (r *itemMongo) Search(ctx context.Context, f entity.SearchFilter) ([]entity.Item, error) {
	return r.find(ctx, searchFilter(f))
}

func (r *itemMongo) Count(ctx context.Context) (int64, error) {
	return r.items.CountDocuments(ctx, bson.D{})
}

// InsertMany はシードデータを一括挿入し、カウンターを最大IDまで進めます。
func (r *itemMongo) InsertMany(ctx context.Context, items []entity.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	docs := make([]any, 0, len(items))
	for _, it := range items {
		docs = append(docs, toItemDocument(it))
	}
	res, err := r.items.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("failed to insert items: %w", err)
	}
	if err := r.syncCounter(ctx); err != nil {
		return len(res.InsertedIDs), err
	}
	return len(res.InsertedIDs), nil
}

func (r *itemMongo) find(ctx context.Context, filter bson.D) ([]entity.Item, error) {
	cur, err := r.items.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []itemDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]entity.Item, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toEntity())
	}
	return out, nil
}

func (r *itemMongo) nextSeq(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: ItemsCollection}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate item id: %w", err)
	}
	return counter.Seq, nil
}

// syncCounter はカウンターを既存アイテムの最大数値IDまで$maxで引き上げます。
func (r *itemMongo) syncCounter(ctx context.Context) error {
	cur, err := r.items.Find(ctx, bson.D{}, options.Find().SetProjection(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return err
	}
	defer func() { _ = cur.Close(ctx) }()

	var maxID int64
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return err
		}
		if n, err := strconv.ParseInt(doc.ID, 10, 64); err == nil && n > maxID {
			maxID = n
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}

	_, err = r.counters.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: ItemsCollection}},
		bson.D{{Key: "$max", Value: bson.D{{Key: "seq", Value: maxID}}}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to sync item counter: %w", err)
	}
	return nil
}

func searchFilter(f entity.SearchFilter) bson.D {
	filter := bson.D{}
	if name := strings.TrimSpace(f.Name); name != "" {
		filter = append(filter, bson.E{Key: "name", Value: bson.D{
			{Key: "$regex", Value: regexp.QuoteMeta(name)},
			{Key: "$options", Value: "i"},
		}})
	}
	if f.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: f.Category})
	}
	if f.Condition != "" {
		filter = append(filter, bson.E{Key: "condition", Value: f.Condition})
	}
	if f.MaxAgeYears != nil {
		filter = append(filter, bson.E{Key: "age_years", Value: bson.D{{Key: "$lte", Value: *f.MaxAgeYears}}})
	}
	return filter
}
