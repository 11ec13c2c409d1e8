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
	"fmt"
	"net/http"
	"strconv"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"github.com/gorse-io/cadenza/base/log"
	"github.com/gorse-io/cadenza/logics"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const apiDocsPath = "/apidocs.json"

// StartHttpServer serves the REST API, the OpenAPI document and prometheus
// metrics until the listener fails.
func (s *Server) StartHttpServer() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	log.Logger().Info("start http server", zap.String("url", "http://"+addr))
	return errors.Trace(http.ListenAndServe(addr, s.Handler()))
}

// Handler creates a container with every route registered.
func (s *Server) Handler() *restful.Container {
	ws := s.CreateWebService()
	container := restful.NewContainer()
	container.Add(ws)
	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     apiDocsPath,
	}))
	container.Handle("/metrics", promhttp.Handler())
	return container
}

// RequestIdFilter tags every response with a request id.
func RequestIdFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	requestId := req.Request.Header.Get("X-Request-ID")
	if requestId == "" {
		requestId = uuid.NewString()
	}
	resp.Header().Set("X-Request-ID", requestId)
	chain.ProcessFilter(req, resp)
}

func LogFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	chain.ProcessFilter(req, resp)
	log.ResponseLogger(resp).Info(fmt.Sprintf("%s %s", req.Request.Method, req.Request.URL),
		zap.Int("status_code", resp.StatusCode()))
}

// CreateWebService creates web service.
func (s *Server) CreateWebService() *restful.WebService {
	ws := new(restful.WebService)
	ws.Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Path("/api/")
	ws.Filter(RequestIdFilter)
	ws.Filter(LogFilter)

	ws.Route(ws.GET("/genres").To(s.getGenres).
		Doc("Get genres in the catalog.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"catalog"}).
		Writes([]string{}))
	ws.Route(ws.GET("/users").To(s.getUsers).
		Doc("Get identifiers of users who rated items.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"user"}).
		Writes([]int{}))
	ws.Route(ws.POST("/simulate").To(s.simulate).
		Doc("Create a user who loves the selected genres.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"user"}).
		Reads(SimulateRequest{}).
		Writes(SimulateResponse{}))
	ws.Route(ws.POST("/feedback").To(s.feedback).
		Doc("Rate an item and adapt genre weights.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"feedback"}).
		Reads(Feedback{}).
		Writes(Success{}))
	ws.Route(ws.GET("/recommend/{user-id}").To(s.getRecommend).
		Doc("Get recommendations for a user.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Param(ws.PathParameter("user-id", "identifier of the user").DataType("integer")).
		Param(ws.QueryParameter("n", "number of returned items").DataType("integer")).
		Param(ws.QueryParameter("metric", "similarity metric: pearson or cosine").DataType("string")).
		Writes([]logics.Recommendation{}))
	ws.Route(ws.GET("/accuracy").To(s.getAccuracy).
		Doc("Evaluate the hit rate of a user, or the mean hit rate of sampled users.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"evaluation"}).
		Param(ws.QueryParameter("user-id", "identifier of the user, all users if absent").DataType("integer")).
		Param(ws.QueryParameter("n-recommend", "number of recommendations").DataType("integer")).
		Param(ws.QueryParameter("test-frac", "fraction of liked items held out").DataType("number")).
		Param(ws.QueryParameter("max-users", "maximum number of sampled users").DataType("integer")).
		Param(ws.QueryParameter("metric", "similarity metric: pearson or cosine").DataType("string")))
	return ws
}

type Success struct {
	RowAffected int
}

func (s *Server) getGenres(request *restful.Request, response *restful.Response) {
	genres, err := s.ListGenres(request.Request.Context())
	if err != nil {
		WriteError(response, err)
		return
	}
	Ok(response, genres)
}

func (s *Server) getUsers(request *restful.Request, response *restful.Response) {
	users, err := s.ListUserIds(request.Request.Context())
	if err != nil {
		WriteError(response, err)
		return
	}
	Ok(response, users)
}

func (s *Server) simulate(request *restful.Request, response *restful.Response) {
	var body SimulateRequest
	if err := request.ReadEntity(&body); err != nil {
		BadRequest(response, err)
		return
	}
	result, err := s.SimulateNewUser(request.Request.Context(), body.Genres)
	if err != nil {
		WriteError(response, err)
		return
	}
	Ok(response, result)
}

func (s *Server) feedback(request *restful.Request, response *restful.Response) {
	var body Feedback
	if err := request.ReadEntity(&body); err != nil {
		BadRequest(response, err)
		return
	}
	if err := s.SubmitFeedback(request.Request.Context(), body); err != nil {
		WriteError(response, err)
		return
	}
	Ok(response, Success{RowAffected: 1})
}

func (s *Server) getRecommend(request *restful.Request, response *restful.Response) {
	userId, err := strconv.Atoi(request.PathParameter("user-id"))
	if err != nil {
		BadRequest(response, err)
		return
	}
	n, err := ParseInt(request, "n", s.Config.Recommend.DefaultN)
	if err != nil {
		BadRequest(response, err)
		return
	}
	recommendations, err := s.GetRecommendations(request.Request.Context(), userId, n, request.QueryParameter("metric"))
	if err != nil {
		WriteError(response, err)
		return
	}
	Ok(response, recommendations)
}

func (s *Server) getAccuracy(request *restful.Request, response *restful.Response) {
	var (
		accuracyRequest AccuracyRequest
		err             error
	)
	if value := request.QueryParameter("user-id"); value != "" {
		userId, err := strconv.Atoi(value)
		if err != nil {
			BadRequest(response, err)
			return
		}
		accuracyRequest.UserId = &userId
	}
	if accuracyRequest.NRecommend, err = ParseInt(request, "n-recommend", s.Config.Evaluate.NRecommend); err != nil {
		BadRequest(response, err)
		return
	}
	if accuracyRequest.TestFraction, err = ParseFloat(request, "test-frac", s.Config.Evaluate.TestFraction); err != nil {
		BadRequest(response, err)
		return
	}
	if accuracyRequest.MaxUsers, err = ParseInt(request, "max-users", s.Config.Evaluate.MaxUsers); err != nil {
		BadRequest(response, err)
		return
	}
	accuracyRequest.Metric = request.QueryParameter("metric")
	result, err := s.GetAccuracy(request.Request.Context(), accuracyRequest)
	if err != nil {
		WriteError(response, err)
		return
	}
	if result.User != nil {
		Ok(response, result.User)
	} else {
		Ok(response, result.Aggregate)
	}
}

// ParseInt parses integers from the query parameter.
func ParseInt(request *restful.Request, name string, fallback int) (value int, err error) {
	valueString := request.QueryParameter(name)
	value, err = strconv.Atoi(valueString)
	if err != nil && valueString == "" {
		value = fallback
		err = nil
	}
	return
}

// ParseFloat parses floats from the query parameter.
func ParseFloat(request *restful.Request, name string, fallback float64) (value float64, err error) {
	valueString := request.QueryParameter(name)
	value, err = strconv.ParseFloat(valueString, 64)
	if err != nil && valueString == "" {
		value = fallback
		err = nil
	}
	return
}

// WriteError maps invalid input to 400, missing entities to 404 and the rest to 500.
func WriteError(response *restful.Response, err error) {
	switch {
	case errors.Is(err, errors.NotValid):
		BadRequest(response, err)
	case errors.Is(err, errors.NotFound):
		PageNotFound(response, err)
	default:
		InternalServerError(response, err)
	}
}

// BadRequest returns a bad request error.
func BadRequest(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.ResponseLogger(response).Error("bad request", zap.Error(err))
	if err = response.WriteError(http.StatusBadRequest, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// InternalServerError returns a internal server error.
func InternalServerError(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.ResponseLogger(response).Error("internal server error", zap.Error(err))
	if err = response.WriteError(http.StatusInternalServerError, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// PageNotFound returns a not found error.
func PageNotFound(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteError(http.StatusNotFound, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// Ok sends the content as JSON to the client.
func Ok(response *restful.Response, content interface{}) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteAsJson(content); err != nil {
		log.ResponseLogger(response).Error("failed to write json", zap.Error(err))
	}
}
