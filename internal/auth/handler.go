package auth

import (
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"ddt-backend/internal/config"
	"ddt-backend/internal/database"
	"ddt-backend/internal/models"
)

const minPasswordLength = 8

type RegisterRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
}

func toResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (r *RegisterRequest) normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))

	if r.Email == "" || r.Password == "" || r.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Nome, email e password sono obbligatori")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Email non valida")
	}
	if len(r.Password) < minPasswordLength {
		return fiber.NewError(fiber.StatusBadRequest, "La password deve avere almeno 8 caratteri")
	}
	return nil
}

func createUser(body RegisterRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Impossibile cifrare la password")
	}

	user := models.User{
		Name:         body.Name,
		Email:        body.Email,
		PasswordHash: string(hash),
		Role:         body.Role,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fiber.NewError(fiber.StatusConflict, "Email già registrata")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Impossibile creare l'utente")
	}
	return &user, nil
}

// POST /api/auth/register-admin: bootstrap, allowed only while no admin exists
func RegisterAdminHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo della richiesta non valido")
		}
		if err := body.normalize(); err != nil {
			return err
		}

		var count int64
		if err := database.DB.Model(&models.User{}).
			Where("role = ?", models.RoleAdmin).
			Count(&count).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Impossibile verificare gli utenti")
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "Esiste già un amministratore")
		}

		body.Role = models.RoleAdmin
		user, err := createUser(body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toResponse(user))
	}
}

// POST /api/admin/users
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo della richiesta non valido")
		}
		if err := body.normalize(); err != nil {
			return err
		}
		if body.Role == "" {
			body.Role = models.RoleOperator
		}
		if body.Role != models.RoleAdmin && body.Role != models.RoleOperator {
			return fiber.NewError(fiber.StatusBadRequest, "Ruolo non valido")
		}

		user, err := createUser(body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toResponse(user))
	}
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo della richiesta non valido")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email o password errati")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email o password errati")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Impossibile generare il token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  toResponse(&user),
		})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := Actor(c)

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Utente non trovato")
		}
		return c.JSON(toResponse(&user))
	}
}
