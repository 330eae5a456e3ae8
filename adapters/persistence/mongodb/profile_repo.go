package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/khoahotran/devprofile/internal/domain/profile"
	"github.com/khoahotran/devprofile/internal/domain/user"
	"github.com/khoahotran/devprofile/pkg/apperror"
	"github.com/khoahotran/devprofile/pkg/logger"
)

type socialDoc struct {
	Youtube   *string `bson:"youtube,omitempty"`
	Twitter   *string `bson:"twitter,omitempty"`
	Facebook  *string `bson:"facebook,omitempty"`
	Linkedin  *string `bson:"linkedin,omitempty"`
	Instagram *string `bson:"instagram,omitempty"`
}

type experienceDoc struct {
	ID          string     `bson:"id"`
	Title       string     `bson:"title"`
	Company     string     `bson:"company"`
	Location    *string    `bson:"location,omitempty"`
	From        time.Time  `bson:"from"`
	To          *time.Time `bson:"to,omitempty"`
	Current     bool       `bson:"current"`
	Description *string    `bson:"description,omitempty"`
}

type educationDoc struct {
	ID           string     `bson:"id"`
	School       string     `bson:"school"`
	Degree       string     `bson:"degree"`
	FieldOfStudy string     `bson:"fieldofstudy"`
	From         time.Time  `bson:"from"`
	To           *time.Time `bson:"to,omitempty"`
	Current      bool       `bson:"current"`
	Description  *string    `bson:"description,omitempty"`
}

type profileDoc struct {
	ID             string          `bson:"_id"`
	UserID         string          `bson:"user_id"`
	Company        *string         `bson:"company,omitempty"`
	Website        *string         `bson:"website,omitempty"`
	Location       *string         `bson:"location,omitempty"`
	Status         string          `bson:"status"`
	Skills         []string        `bson:"skills"`
	Bio            *string         `bson:"bio,omitempty"`
	GithubUsername *string         `bson:"githubusername,omitempty"`
	Social         socialDoc       `bson:"social"`
	Experience     []experienceDoc `bson:"experience"`
	Education      []educationDoc  `bson:"education"`
	Date           time.Time       `bson:"date"`
}

func (d *profileDoc) toDomain(owner user.Summary) (*profile.Profile, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, apperror.NewInternal("corrupt profile id "+d.ID, err)
	}
	p := &profile.Profile{
		ID:             id,
		User:           owner,
		Company:        d.Company,
		Website:        d.Website,
		Location:       d.Location,
		Status:         d.Status,
		Skills:         d.Skills,
		Bio:            d.Bio,
		GithubUsername: d.GithubUsername,
		Social:         profile.Social(d.Social),
		Experience:     make([]profile.Experience, 0, len(d.Experience)),
		Education:      make([]profile.Education, 0, len(d.Education)),
		Date:           d.Date,
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	for _, e := range d.Experience {
		entryID, err := uuid.Parse(e.ID)
		if err != nil {
			return nil, apperror.NewInternal("corrupt experience id "+e.ID, err)
		}
		p.Experience = append(p.Experience, profile.Experience{
			ID: entryID, Title: e.Title, Company: e.Company, Location: e.Location,
			From: e.From, To: e.To, Current: e.Current, Description: e.Description,
		})
	}
	for _, e := range d.Education {
		entryID, err := uuid.Parse(e.ID)
		if err != nil {
			return nil, apperror.NewInternal("corrupt education id "+e.ID, err)
		}
		p.Education = append(p.Education, profile.Education{
			ID: entryID, School: e.School, Degree: e.Degree, FieldOfStudy: e.FieldOfStudy,
			From: e.From, To: e.To, Current: e.Current, Description: e.Description,
		})
	}
	return p, nil
}

// Entry changes use $push and $pull on the stored document, never a
// read-modify-write of the whole array.
type mongoProfileRepo struct {
	profiles *mongo.Collection
	users    *mongo.Collection
	logger   logger.Logger
}

func NewMongoProfileRepo(db *mongo.Database, log logger.Logger) profile.Repository {
	return &mongoProfileRepo{
		profiles: db.Collection(profilesCollection),
		users:    db.Collection(usersCollection),
		logger:   log,
	}
}

func (r *mongoProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	var doc profileDoc
	if err := r.profiles.FindOne(ctx, bson.M{"user_id": userID.String()}).Decode(&doc); err != nil {
		return nil, r.mapErr(err)
	}
	return r.populate(ctx, &doc)
}

func (r *mongoProfileRepo) List(ctx context.Context) ([]*profile.Profile, error) {
	cursor, err := r.profiles.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, apperror.NewInternal("failed to list profiles", err)
	}
	var docs []profileDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperror.NewInternal("failed to decode profiles", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.UserID)
	}
	owners, err := r.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*profile.Profile, 0, len(docs))
	for i := range docs {
		p, err := docs[i].toDomain(owners[docs[i].UserID])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *mongoProfileRepo) Upsert(ctx context.Context, userID uuid.UUID, f profile.UpsertFields) (*profile.Profile, error) {
	if _, err := r.summary(ctx, userID.String()); err != nil {
		return nil, err
	}

	skills := f.Skills
	if skills == nil {
		skills = []string{}
	}
	set := bson.M{
		"status": f.Status,
		"skills": skills,
		"social": socialDoc(f.Social),
	}
	for key, v := range map[string]*string{
		"company":        f.Company,
		"website":        f.Website,
		"location":       f.Location,
		"bio":            f.Bio,
		"githubusername": f.GithubUsername,
	} {
		if v != nil {
			set[key] = *v
		}
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":        uuid.New().String(),
			"experience": bson.A{},
			"education":  bson.A{},
			"date":       time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc profileDoc
	err := r.profiles.FindOneAndUpdate(ctx, bson.M{"user_id": userID.String()}, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// lost the insert race to a concurrent upsert; the retry updates
		err = r.profiles.FindOneAndUpdate(ctx, bson.M{"user_id": userID.String()}, update, opts).Decode(&doc)
	}
	if err != nil {
		r.logger.Error("Failed to upsert profile", err, zap.String("user_id", userID.String()))
		return nil, apperror.NewInternal("failed to upsert profile", err)
	}
	return r.populate(ctx, &doc)
}

func (r *mongoProfileRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.profiles.DeleteOne(ctx, bson.M{"user_id": userID.String()}); err != nil {
		r.logger.Error("Failed to delete profile", err, zap.String("user_id", userID.String()))
		return apperror.NewInternal("failed to delete profile", err)
	}
	return nil
}

func (r *mongoProfileRepo) AddExperience(ctx context.Context, userID uuid.UUID, e profile.Experience) (*profile.Profile, error) {
	doc := experienceDoc{
		ID: e.ID.String(), Title: e.Title, Company: e.Company, Location: e.Location,
		From: e.From, To: e.To, Current: e.Current, Description: e.Description,
	}
	return r.update(ctx, bson.M{"user_id": userID.String()}, prepend("experience", doc))
}

func (r *mongoProfileRepo) AddEducation(ctx context.Context, userID uuid.UUID, e profile.Education) (*profile.Profile, error) {
	doc := educationDoc{
		ID: e.ID.String(), School: e.School, Degree: e.Degree, FieldOfStudy: e.FieldOfStudy,
		From: e.From, To: e.To, Current: e.Current, Description: e.Description,
	}
	return r.update(ctx, bson.M{"user_id": userID.String()}, prepend("education", doc))
}

func (r *mongoProfileRepo) RemoveExperience(ctx context.Context, userID uuid.UUID, entryID uuid.UUID) (*profile.Profile, error) {
	return r.update(ctx,
		bson.M{"user_id": userID.String()},
		bson.M{"$pull": bson.M{"experience": bson.M{"id": entryID.String()}}},
	)
}

func (r *mongoProfileRepo) RemoveEducation(ctx context.Context, userID uuid.UUID, entryID uuid.UUID) (*profile.Profile, error) {
	p, err := r.update(ctx,
		bson.M{"user_id": userID.String(), "education.id": entryID.String()},
		bson.M{"$pull": bson.M{"education": bson.M{"id": entryID.String()}}},
	)
	if !errors.Is(err, profile.ErrProfileNotFound) {
		return p, err
	}

	n, err := r.profiles.CountDocuments(ctx, bson.M{"user_id": userID.String()})
	if err != nil {
		return nil, apperror.NewInternal("failed to check profile", err)
	}
	if n > 0 {
		return nil, profile.ErrEducationNotFound
	}
	return nil, profile.ErrProfileNotFound
}

func prepend(field string, entry any) bson.M {
	return bson.M{"$push": bson.M{field: bson.M{"$each": bson.A{entry}, "$position": 0}}}
}

func (r *mongoProfileRepo) update(ctx context.Context, filter, update bson.M) (*profile.Profile, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc profileDoc
	if err := r.profiles.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, r.mapErr(err)
	}
	return r.populate(ctx, &doc)
}

func (r *mongoProfileRepo) populate(ctx context.Context, doc *profileDoc) (*profile.Profile, error) {
	owner, err := r.summary(ctx, doc.UserID)
	if errors.Is(err, user.ErrUserNotFound) {
		owner.ID, _ = uuid.Parse(doc.UserID)
	} else if err != nil {
		return nil, err
	}
	return doc.toDomain(owner)
}

func (r *mongoProfileRepo) summary(ctx context.Context, userID string) (user.Summary, error) {
	owners, err := r.summaries(ctx, []string{userID})
	if err != nil {
		return user.Summary{}, err
	}
	s, ok := owners[userID]
	if !ok {
		return user.Summary{}, user.ErrUserNotFound
	}
	return s, nil
}

func (r *mongoProfileRepo) summaries(ctx context.Context, userIDs []string) (map[string]user.Summary, error) {
	out := make(map[string]user.Summary, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	opts := options.Find().SetProjection(bson.M{"name": 1, "avatar": 1})
	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}}, opts)
	if err != nil {
		return nil, apperror.NewInternal("failed to load profile owners", err)
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperror.NewInternal("failed to decode profile owners", err)
	}
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			continue
		}
		out[d.ID] = user.Summary{ID: id, Name: d.Name, Avatar: d.Avatar}
	}
	return out, nil
}

func (r *mongoProfileRepo) mapErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return profile.ErrProfileNotFound
	}
	return apperror.NewInternal("profile query failed", err)
}
