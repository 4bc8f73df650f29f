package handler

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"motorplus/internal/apierror"
	"motorplus/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// gte=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Report field errors under the wire name (json, then form tag).
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return ""
	})
}

// respondError writes the envelope for err. Classified errors keep their
// kind and detail; anything else is logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var e *apierror.Error
	if errors.As(err, &e) && e.Kind != apierror.KindInternal {
		c.AbortWithStatusJSON(apierror.Status(e.Kind), apierror.FromError(e))
		return
	}
	log.Error().
		Str("request_id", c.GetString(middleware.RequestIDKey)).
		Str("path", c.FullPath()).
		Err(err).
		Msg("request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, &apierror.APIError{Detail: "Error interno del servidor", Code: apierror.KindInternal})
}

func validationFailed(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, apierror.FromError(apierror.Invalid("%s", err.Error())))
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails; the
// caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apierror.FromError(apierror.Invalid("JSON invalido: %s", err.Error())))
		return false
	}
	if err := validate.Struct(req); err != nil {
		validationFailed(c, err)
		return false
	}
	return true
}

// bindQuery is bindAndValidate for query strings.
func bindQuery(c *gin.Context, q any) bool {
	if err := c.ShouldBindQuery(q); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apierror.FromError(apierror.Invalid("parametros invalidos: %s", err.Error())))
		return false
	}
	if err := validate.Struct(q); err != nil {
		validationFailed(c, err)
		return false
	}
	return true
}

// paramID parses a UUID path parameter, answering 400 when malformed.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, apierror.Invalid("%s invalido: %q", name, c.Param(name)))
		return uuid.Nil, false
	}
	return id, true
}

// setActive handles the shared PATCH /:id/active. The flag comes from the
// ?active= query when present, else from the JSON body.
func setActive(c *gin.Context, fn func(id uuid.UUID, active bool) error) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var active bool
	if raw, set := c.GetQuery("active"); set {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, apierror.Invalid("active invalido: %q", raw))
			return
		}
		active = v
	} else {
		var req struct {
			Active *bool `json:"active" validate:"required"`
		}
		if !bindAndValidate(c, &req) {
			return
		}
		active = *req.Active
	}
	if err := fn(id, active); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func orderItem(c *gin.Context) (orderID, itemID uuid.UUID, ok bool) {
	if orderID, ok = paramID(c, "id"); !ok {
		return
	}
	itemID, ok = paramID(c, "itemId")
	return
}
