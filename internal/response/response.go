package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse es el cuerpo de error de la API de encuestas. El cliente lee
// primero "message" y después "error".
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// VoteResponse confirma un voto; Message lleva el código de motivo cuando OK
// es false
type VoteResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// ErrorResponseWithMessage envía una respuesta de error con mensaje personalizado
func ErrorResponseWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Message: message,
		Error:   http.StatusText(status),
	})
}

// BadRequestError envía un error 400
func BadRequestError(c *gin.Context, message string) {
	ErrorResponseWithMessage(c, http.StatusBadRequest, message)
}

// NotFoundError envía un error 404
func NotFoundError(c *gin.Context, message string) {
	ErrorResponseWithMessage(c, http.StatusNotFound, message)
}

// InternalServerError envía un error 500
func InternalServerError(c *gin.Context, message string) {
	ErrorResponseWithMessage(c, http.StatusInternalServerError, message)
}

// VoteAccepted confirma un voto registrado
func VoteAccepted(c *gin.Context) {
	c.JSON(http.StatusOK, VoteResponse{OK: true, Message: "Vote recorded"})
}

// VoteRejected responde un voto no registrado con su código de motivo
func VoteRejected(c *gin.Context, code string) {
	c.JSON(http.StatusOK, VoteResponse{OK: false, Message: code})
}

// NoContent envía un 204 sin cuerpo
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
