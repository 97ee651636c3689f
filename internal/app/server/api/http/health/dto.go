package health

type Input struct{}

type Output struct {
	Body Response
}

// Response отдается только при доступном хранилище
type Response struct {
	Status string `json:"status" example:"OK" doc:"OK, если хранилище отвечает на ping"`
}
