// Copyright 2022 gorse Project Authors
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


package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorse-io/cadenza/logics"
	"github.com/gorse-io/cadenza/server"
	"github.com/juju/errors"
)

// CadenzaClient calls the REST API of a cadenza server. Its methods mirror
// those of server.Server.
type CadenzaClient struct {
	entryPoint string
	httpClient http.Client
}

func NewCadenzaClient(entryPoint string) *CadenzaClient {
	return &CadenzaClient{entryPoint: entryPoint}
}

func (c *CadenzaClient) ListGenres(ctx context.Context) ([]string, error) {
	var genres []string
	err := c.request(ctx, http.MethodGet, "/api/genres", nil, nil, &genres)
	return genres, err
}

func (c *CadenzaClient) ListUserIds(ctx context.Context) ([]int, error) {
	var users []int
	err := c.request(ctx, http.MethodGet, "/api/users", nil, nil, &users)
	return users, err
}

func (c *CadenzaClient) SimulateNewUser(ctx context.Context, genres []string) (server.SimulateResponse, error) {
	var result server.SimulateResponse
	err := c.request(ctx, http.MethodPost, "/api/simulate", nil, server.SimulateRequest{Genres: genres}, &result)
	return result, err
}

func (c *CadenzaClient) SubmitFeedback(ctx context.Context, feedback server.Feedback) error {
	var result server.Success
	return c.request(ctx, http.MethodPost, "/api/feedback", nil, feedback, &result)
}

func (c *CadenzaClient) GetRecommendations(ctx context.Context, userId, n int, metric string) ([]logics.Recommendation, error) {
	query := url.Values{}
	query.Set("n", strconv.Itoa(n))
	if metric != "" {
		query.Set("metric", metric)
	}
	var recommendations []logics.Recommendation
	err := c.request(ctx, http.MethodGet, fmt.Sprintf("/api/recommend/%d", userId), query, nil, &recommendations)
	return recommendations, err
}

// GetAccuracy evaluates on the server. Progress is not reported remotely.
func (c *CadenzaClient) GetAccuracy(ctx context.Context, request server.AccuracyRequest) (server.AccuracyResponse, error) {
	query := url.Values{}
	if request.NRecommend > 0 {
		query.Set("n-recommend", strconv.Itoa(request.NRecommend))
	}
	if request.TestFraction != 0 {
		query.Set("test-frac", strconv.FormatFloat(request.TestFraction, 'g', -1, 64))
	}
	if request.MaxUsers > 0 {
		query.Set("max-users", strconv.Itoa(request.MaxUsers))
	}
	if request.Metric != "" {
		query.Set("metric", request.Metric)
	}
	var response server.AccuracyResponse
	if request.UserId != nil {
		query.Set("user-id", strconv.Itoa(*request.UserId))
		response.User = new(logics.UserAccuracy)
		return response, c.request(ctx, http.MethodGet, "/api/accuracy", query, nil, response.User)
	}
	response.Aggregate = new(logics.AggregateAccuracy)
	return response, c.request(ctx, http.MethodGet, "/api/accuracy", query, nil, response.Aggregate)
}

func (c *CadenzaClient) request(ctx context.Context, method, path string, query url.Values, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Trace(err)
		}
		reader = bytes.NewReader(data)
	}
	target := c.entryPoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return errors.Trace(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Trace(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Trace(err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return errors.Trace(json.Unmarshal(data, result))
	case http.StatusBadRequest:
		return errors.NewNotValid(ErrorMessage(data), "")
	case http.StatusNotFound:
		return errors.NewNotFound(ErrorMessage(data), "")
	default:
		return errors.Trace(ErrorMessage(data))
	}
}
