package handler

import "github.com/greyfall/ttvgate/model"

type LiveResponse struct {
	Links *model.QualityLinks `json:"links"`
	Best  string              `json:"best"`
	Title string              `json:"title"`
	Game  string              `json:"game"`
}

type VodResponse struct {
	Links *model.QualityLinks `json:"links"`
	Best  string              `json:"best"`
	Info  string              `json:"info,omitempty"`
}

type VideosResponse struct {
	Videos     []model.VideoItem `json:"videos"`
	Pagination model.PageInfo    `json:"pagination"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
