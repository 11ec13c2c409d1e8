// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"context"
	"sync"
	"time"

	"github.com/gorse-io/cadenza/base/log"
	"github.com/gorse-io/cadenza/config"
	"github.com/gorse-io/cadenza/logics"
	"github.com/gorse-io/cadenza/storage"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Feedback is a rating given by a user to a recommended item.
type Feedback struct {
	UserId int `json:"user_id"`
	ItemId int `json:"item_id"`
	Rating int `json:"rating"`
}

type SimulateRequest struct {
	Genres []string `json:"genres"`
}

type SimulateResponse struct {
	UserId int    `json:"user_id"`
	Status string `json:"status"`
}

// AccuracyRequest selects a single user when UserId is set, otherwise a random
// sample of at most MaxUsers users.
type AccuracyRequest struct {
	UserId       *int
	NRecommend   int
	TestFraction float64
	MaxUsers     int
	Metric       string
	// Progress is called after each user of a sampled evaluation.
	Progress func(done, total int)
}

// AccuracyResponse holds exactly one of User and Aggregate.
type AccuracyResponse struct {
	User      *logics.UserAccuracy
	Aggregate *logics.AggregateAccuracy
}

// Server exposes recommendation, feedback and evaluation over a database.
// Read-modify-write cycles on the rating table and on the genre weights are
// serialized per table.
type Server struct {
	Config   *config.Config
	Database storage.Database

	recommender *logics.Recommender
	evaluator   *logics.Evaluator
	adapter     logics.GenreAdapter
	simulator   logics.Simulator

	ratingsMutex sync.Mutex
	weightsMutex sync.Mutex
}

// NewServer creates a server. The configuration must be valid.
func NewServer(cfg *config.Config, database storage.Database) (*Server, error) {
	metric, err := logics.ParseMetric(cfg.Recommend.Metric)
	if err != nil {
		return nil, errors.Trace(err)
	}
	recommender := logics.NewRecommender(cfg.Recommend, metric, cfg.Recommend.Seed)
	return &Server{
		Config:      cfg,
		Database:    database,
		recommender: recommender,
		evaluator:   logics.NewEvaluator(cfg.Evaluate, recommender, cfg.Evaluate.Seed),
		adapter:     logics.NewGenreAdapter(cfg.Feedback),
		simulator:   logics.NewSimulator(cfg.Simulate),
	}, nil
}

// ListGenres returns the distinct genres of the catalog in order.
func (s *Server) ListGenres(ctx context.Context) ([]string, error) {
	items, err := s.Database.LoadItems(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return logics.Genres(items), nil
}

// ListUserIds returns the distinct users of the rating table in order.
func (s *Server) ListUserIds(ctx context.Context) ([]int, error) {
	ratings, err := s.Database.LoadRatings(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return logics.UserIds(ratings), nil
}

// SimulateNewUser creates a user who loves the given genres. The genre weights
// are replaced by the initial weight of each selected genre.
func (s *Server) SimulateNewUser(ctx context.Context, genres []string) (SimulateResponse, error) {
	items, err := s.Database.LoadItems(ctx)
	if err != nil {
		return SimulateResponse{}, errors.Trace(err)
	}

	s.ratingsMutex.Lock()
	ratings, err := s.Database.LoadRatings(ctx)
	if err != nil {
		s.ratingsMutex.Unlock()
		return SimulateResponse{}, errors.Trace(err)
	}
	simulation := s.simulator.Simulate(genres, ratings, items)
	if len(simulation.Ratings) > 0 {
		err = s.Database.SaveRatings(ctx, append(ratings, simulation.Ratings...))
	}
	s.ratingsMutex.Unlock()
	if err != nil {
		return SimulateResponse{}, errors.Trace(err)
	}

	s.weightsMutex.Lock()
	err = s.Database.SaveGenreWeights(ctx, simulation.Weights)
	s.weightsMutex.Unlock()
	if err != nil {
		return SimulateResponse{}, errors.Trace(err)
	}
	log.Logger().Info("simulate new user",
		zap.Int("user_id", simulation.UserId),
		zap.Strings("genres", genres),
		zap.Int("n_ratings", len(simulation.Ratings)))
	return SimulateResponse{UserId: simulation.UserId, Status: "simulated"}, nil
}

// SubmitFeedback appends a rating and updates the weight of the item's genre.
func (s *Server) SubmitFeedback(ctx context.Context, feedback Feedback) error {
	if feedback.Rating < 1 || feedback.Rating > 5 {
		return errors.NotValidf("rating %d", feedback.Rating)
	}
	items, err := s.Database.LoadItems(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	item, ok := lo.Find(items, func(item logics.Item) bool { return item.Id == feedback.ItemId })
	if !ok {
		return errors.NotFoundf("item %d", feedback.ItemId)
	}

	s.ratingsMutex.Lock()
	ratings, err := s.Database.LoadRatings(ctx)
	if err == nil {
		ratings = append(ratings, logics.Rating{UserId: feedback.UserId, ItemId: feedback.ItemId, Rating: feedback.Rating})
		err = s.Database.SaveRatings(ctx, ratings)
	}
	s.ratingsMutex.Unlock()
	if err != nil {
		return errors.Trace(err)
	}

	s.weightsMutex.Lock()
	defer s.weightsMutex.Unlock()
	weights, err := s.Database.LoadGenreWeights(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	weights = s.adapter.ApplyFeedback(weights, item.Genre, feedback.Rating)
	if err = s.Database.SaveGenreWeights(ctx, weights); err != nil {
		return errors.Trace(err)
	}
	FeedbackTotal.WithLabelValues(feedbackPolarity(feedback.Rating)).Inc()
	log.Logger().Debug("apply feedback",
		zap.Int("user_id", feedback.UserId),
		zap.Int("item_id", feedback.ItemId),
		zap.Int("rating", feedback.Rating),
		zap.String("genre", item.Genre),
		zap.Float64("weight", weights[item.Genre]))
	return nil
}

// GetRecommendations ranks the top n items for a user. An empty metric uses
// the configured one.
func (s *Server) GetRecommendations(ctx context.Context, userId, n int, metric string) ([]logics.Recommendation, error) {
	start := time.Now()
	recommender, err := s.recommenderFor(metric)
	if err != nil {
		return nil, errors.Trace(err)
	}
	ratings, items, weights, err := s.load(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	recommendations := recommender.Recommend(userId, n, ratings, items, weights, s.Config.Recommend.MaxItemsToCheck)
	RecommendSeconds.Observe(time.Since(start).Seconds())
	return recommendations, nil
}

// GetAccuracy evaluates one user or a random sample of users.
func (s *Server) GetAccuracy(ctx context.Context, request AccuracyRequest) (AccuracyResponse, error) {
	start := time.Now()
	if request.NRecommend <= 0 {
		request.NRecommend = s.Config.Evaluate.NRecommend
	}
	if request.TestFraction == 0 {
		request.TestFraction = s.Config.Evaluate.TestFraction
	}
	if request.MaxUsers <= 0 {
		request.MaxUsers = s.Config.Evaluate.MaxUsers
	}
	if request.TestFraction < 0 || request.TestFraction > 1 {
		return AccuracyResponse{}, errors.NotValidf("test fraction %v", request.TestFraction)
	}
	recommender, err := s.recommenderFor(request.Metric)
	if err != nil {
		return AccuracyResponse{}, errors.Trace(err)
	}
	ratings, items, weights, err := s.load(ctx)
	if err != nil {
		return AccuracyResponse{}, errors.Trace(err)
	}
	evaluator := s.evaluator.WithRecommender(recommender)
	evaluator.Progress = request.Progress
	var response AccuracyResponse
	if request.UserId != nil {
		accuracy := evaluator.EvaluateUser(*request.UserId, request.NRecommend, request.TestFraction, ratings, items, weights)
		response.User = &accuracy
	} else {
		accuracy := evaluator.EvaluateAll(request.NRecommend, request.TestFraction, request.MaxUsers, ratings, items, weights)
		accuracy.Details = nil
		response.Aggregate = &accuracy
	}
	AccuracySeconds.Observe(time.Since(start).Seconds())
	return response, nil
}

func (s *Server) recommenderFor(name string) (*logics.Recommender, error) {
	if name == "" {
		return s.recommender, nil
	}
	metric, err := logics.ParseMetric(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return s.recommender.WithMetric(metric), nil
}

func (s *Server) load(ctx context.Context) ([]logics.Rating, []logics.Item, map[string]float64, error) {
	ratings, err := s.Database.LoadRatings(ctx)
	if err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	items, err := s.Database.LoadItems(ctx)
	if err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	weights, err := s.Database.LoadGenreWeights(ctx)
	if err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	return ratings, items, weights, nil
}

func feedbackPolarity(rating int) string {
	switch {
	case rating >= 4:
		return "positive"
	case rating <= 2:
		return "negative"
	}
	return "neutral"
}
