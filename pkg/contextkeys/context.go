package contextkeys

type contextKey string

// DBContextKey - ключ *gorm.DB запроса (в gin.Context и в context.Context)
const DBContextKey = contextKey("db")

// IdentityContextKey - ключ *models.User, которого пропустил Protect или IsLoggedIn
const IdentityContextKey = contextKey("identity")
