package source

import (
	"context"
	stderrors "errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snarldev/snarl/pkg/errors"
	"github.com/snarldev/snarl/pkg/snapshot"
)

// Collection names inside the recording database.
const (
	framesCollection = "frames"
	metaCollection   = "recordings"
)

// MongoSource reads a recording stored in MongoDB. Frames live in the
// "frames" collection keyed by (recording, index); metadata lives in
// "recordings" keyed by recording name.
//
// All methods are safe for concurrent use.
type MongoSource struct {
	frames    *mongo.Collection
	meta      *mongo.Collection
	recording string
}

type frameDoc struct {
	Recording string            `bson:"recording"`
	Index     int               `bson:"index"`
	Frame     snapshot.RawFrame `bson:"frame"`
}

type metaDoc struct {
	Recording string                 `bson:"recording"`
	Meta      snapshot.RecordingMeta `bson:"meta"`
}

// NewMongoSource opens a recording in the given database.
func NewMongoSource(client *mongo.Client, database, recording string) (*MongoSource, error) {
	if err := errors.ValidateRecordingName(recording); err != nil {
		return nil, err
	}
	db := client.Database(database)
	return &MongoSource{
		frames:    db.Collection(framesCollection),
		meta:      db.Collection(metaCollection),
		recording: recording,
	}, nil
}

// Meta returns the recording metadata.
func (s *MongoSource) Meta(ctx context.Context) (snapshot.RecordingMeta, error) {
	var doc metaDoc
	err := s.meta.FindOne(ctx, bson.M{"recording": s.recording}).Decode(&doc)
	if err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return snapshot.RecordingMeta{}, errors.New(errors.ErrCodeRecordingNotFound, "recording %q", s.recording)
		}
		return snapshot.RecordingMeta{}, errors.Wrap(errors.ErrCodeNetwork, err, "load recording %q", s.recording)
	}
	return doc.Meta, nil
}

// Frame fetches one raw frame by index.
func (s *MongoSource) Frame(ctx context.Context, index int) (snapshot.RawFrame, error) {
	if index < 0 {
		return snapshot.RawFrame{}, errors.New(errors.ErrCodeInvalidFrame, "frame index cannot be negative: %d", index)
	}
	var doc frameDoc
	err := s.frames.FindOne(ctx, bson.M{"recording": s.recording, "index": index}).Decode(&doc)
	if err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return snapshot.RawFrame{}, errors.New(errors.ErrCodeFrameNotFound, "frame %d of recording %q", index, s.recording)
		}
		return snapshot.RawFrame{}, errors.Wrap(errors.ErrCodeNetwork, err, "load frame %d", index)
	}
	return doc.Frame, nil
}

// WriteFrame upserts one raw frame. Recorders use this; readers only need
// Meta and Frame.
func (s *MongoSource) WriteFrame(ctx context.Context, f snapshot.RawFrame) error {
	_, err := s.frames.UpdateOne(ctx,
		bson.M{"recording": s.recording, "index": f.Index},
		bson.M{"$set": frameDoc{Recording: s.recording, Index: f.Index, Frame: f}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "store frame %d", f.Index)
	}
	return nil
}

// WriteMeta upserts the recording metadata.
func (s *MongoSource) WriteMeta(ctx context.Context, meta snapshot.RecordingMeta) error {
	_, err := s.meta.UpdateOne(ctx,
		bson.M{"recording": s.recording},
		bson.M{"$set": metaDoc{Recording: s.recording, Meta: meta}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "store recording %q", s.recording)
	}
	return nil
}
