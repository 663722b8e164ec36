package crud

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"flockApp/domain"
	"flockApp/errs"
)

const (
	// PasswordMinLength is the minimum rune count of a user password.
	PasswordMinLength = 6
	// SuggestedSampleSize is the number of users drawn at random before the
	// already-followed ones are filtered out.
	SuggestedSampleSize = 10
	// SuggestedMax caps the number of suggested users returned.
	SuggestedMax = 6
)

// UserService manages Users. It also contains the part of the authentication
// system that handles database interactions and token creation / hashing.
// It's the "backend" of the auth system, with http/auth.go dealing with
// requests, middleware and cookies being the "frontend".
// It implements the domain.UserService interface.
type UserService struct {
	userValidator
}

// userValidator runs validations on incoming User data.
// On success, it passes the data on to userGorm.
// Otherwise, it returns the error of the validation that has failed.
type userValidator struct {
	hmac       HMAC
	pepper     string
	emailRegex *regexp.Regexp
	userGorm
}

// userGorm runs CRUD operations on the database using incoming User data.
// It assumes that data has been validated.
type userGorm struct {
	db *gorm.DB
}

// NewUserService returns an instance of UserService.
func NewUserService(db *gorm.DB, hmacKey, pepper string) *UserService {
	return &UserService{
		userValidator{
			hmac:       newHMAC(hmacKey),
			pepper:     pepper,
			emailRegex: regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,16}$`),
			userGorm: userGorm{
				db: db,
			},
		},
	}
}

// Ensure the UserService struct properly implements the domain.UserService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.UserService = &UserService{}

// Authenticate checks a submitted username and password for existence and correctness.
func (uv *userValidator) Authenticate(username, password string) (*domain.User, error) {
	found, err := uv.userGorm.ByUsername(username)
	if err != nil {
		if errs.ErrorCode(err) == errs.ENOTFOUND {
			return nil, errs.Errorf(errs.EINVALID, "The username does not exist in our database.")
		}
		return nil, err
	}

	// Append the predefined pepper to the submitted password, hash it, and
	// compare the result to the password hash stored in the user's record.
	err = bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password+uv.pepper))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return nil, errs.Errorf(errs.EINVALID, "The password is incorrect.")
		}
		return nil, err
	}
	return found, nil
}

// MakeRememberToken is a helper to generate remember tokens of a predetermined byte size.
func (uv *userValidator) MakeRememberToken() (string, error) {
	return bytesToString(RememberTokenBytes)
}

// ByRemember hashes a user's remember token and passes it on to
// userGorm.ByRemember, which looks it up in the database.
func (uv *userValidator) ByRemember(token string) (*domain.User, error) {
	user := domain.User{
		Remember: token,
	}
	if err := runUserValFns(&user, uv.rememberHmac); err != nil {
		return nil, err
	}
	return uv.userGorm.ByRemember(user.RememberHash)
}

// Create runs validations needed for creating new User database records.
// It will create a remember token if none is provided.
func (uv *userValidator) Create(user *domain.User) error {
	err := runUserValFns(user,
		uv.passwordRequired,
		uv.passwordMinLength,
		uv.passwordBcrypt,
		uv.passwordHashRequired,
		uv.rememberSetIfUnset,
		uv.rememberMinBytes,
		uv.rememberHmac,
		uv.rememberHashRequired,
		uv.usernameRequired,
		uv.usernameIsAvail,
		uv.emailNormalize,
		uv.emailRequired,
		uv.emailFormat,
		uv.emailIsAvail)
	if err != nil {
		return err
	}
	return uv.userGorm.Create(user)
}

// Update runs validations needed for saving changes to an existing user
// record. It will hash a password or a remember token if one is provided.
func (uv *userValidator) Update(user *domain.User) error {
	err := runUserValFns(user,
		uv.passwordMinLength,
		uv.passwordBcrypt,
		uv.passwordHashRequired,
		uv.rememberMinBytes,
		uv.rememberHmac,
		uv.rememberHashRequired,
		uv.usernameRequired,
		uv.usernameIsAvail,
		uv.emailNormalize,
		uv.emailRequired,
		uv.emailFormat,
		uv.emailIsAvail)
	if err != nil {
		return err
	}
	return uv.userGorm.Update(user)
}

// UpdateProfile applies a partial profile update to the user with the given
// ID. Empty fields leave the stored value unchanged. Changing the password
// requires the current and the new password together.
func (uv *userValidator) UpdateProfile(id int, upd *domain.ProfileUpdate) (*domain.User, error) {
	user, err := uv.userGorm.ByID(id)
	if err != nil {
		return nil, err
	}

	if (upd.CurrentPassword == "") != (upd.NewPassword == "") {
		return nil, errs.Errorf(errs.EINVALID, "Please provide both the current and the new password.")
	}
	if upd.CurrentPassword != "" {
		err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(upd.CurrentPassword+uv.pepper))
		if err != nil {
			return nil, errs.Errorf(errs.EINVALID, "The current password is incorrect.")
		}
		// The new password gets hashed by the Update validation chain below.
		user.Password = upd.NewPassword
	}

	if upd.Name != "" {
		user.Name = upd.Name
	}
	if upd.Email != "" {
		user.Email = upd.Email
	}
	if upd.Username != "" {
		user.Username = upd.Username
	}
	if upd.Bio != "" {
		user.Bio = upd.Bio
	}
	if upd.Link != "" {
		user.Link = upd.Link
	}
	if upd.Avatar != "" {
		user.Avatar = upd.Avatar
	}
	if upd.Header != "" {
		user.Header = upd.Header
	}

	if err := uv.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// runUserValFns runs any number of functions of type userValFn on the passed in User object.
func runUserValFns(user *domain.User, fns ...userValFn) error {
	for _, fn := range fns {
		if err := fn(user); err != nil {
			return err
		}
	}
	return nil
}

// A userValFn is any function that takes in a pointer to a domain.User object and returns an error.
type userValFn func(user *domain.User) error

func (uv *userValidator) emailFormat(user *domain.User) error {
	if user.Email == "" {
		return nil
	}
	if !uv.emailRegex.MatchString(user.Email) {
		return errs.Errorf(errs.EINVALID, "The email address is not valid.")
	}
	return nil
}

func (uv *userValidator) emailIsAvail(user *domain.User) error {
	existing, err := uv.userGorm.ByEmail(user.Email)
	if errs.ErrorCode(err) == errs.ENOTFOUND {
		return nil // Address is not taken.
	}
	if err != nil {
		return err
	}
	if user.ID != existing.ID { // If they are the same, it's just an update.
		return errs.Errorf(errs.ECONFLICT, "The email address is already taken.")
	}
	return nil
}

func (uv *userValidator) emailNormalize(user *domain.User) error {
	user.Email = strings.ToLower(user.Email)
	user.Email = strings.TrimSpace(user.Email)
	return nil
}

func (uv *userValidator) emailRequired(user *domain.User) error {
	if user.Email == "" {
		return errs.Errorf(errs.EINVALID, "The email address is required.")
	}
	return nil
}

func (uv *userValidator) usernameRequired(user *domain.User) error {
	if user.Username == "" {
		return errs.Errorf(errs.EINVALID, "The username is required.")
	}
	return nil
}

func (uv *userValidator) usernameIsAvail(user *domain.User) error {
	existing, err := uv.userGorm.ByUsername(user.Username)
	if errs.ErrorCode(err) == errs.ENOTFOUND {
		return nil // Username is not taken.
	}
	if err != nil {
		return err
	}
	if user.ID != existing.ID {
		return errs.Errorf(errs.ECONFLICT, "The username is already taken.")
	}
	return nil
}

// passwordBcrypt hashes a user's password with a predefined pepper and
// bcrypts it, if the Password field is not the empty string.
func (uv *userValidator) passwordBcrypt(user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	pwBytes := []byte(user.Password + uv.pepper)
	hashedBytes, err := bcrypt.GenerateFromPassword(pwBytes, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashedBytes)
	user.Password = ""
	return nil
}

func (uv *userValidator) passwordHashRequired(user *domain.User) error {
	if user.PasswordHash == "" {
		return errs.Errorf(errs.EINVALID, "The password is required.")
	}
	return nil
}

func (uv *userValidator) passwordMinLength(user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	if utf8.RuneCountInString(user.Password) < PasswordMinLength {
		return errs.Errorf(errs.EINVALID, "The password must be at least 6 characters long.")
	}
	return nil
}

func (uv *userValidator) passwordRequired(user *domain.User) error {
	if user.Password == "" {
		return errs.Errorf(errs.EINVALID, "The password is required.")
	}
	return nil
}

func (uv *userValidator) rememberHashRequired(user *domain.User) error {
	if user.RememberHash == "" {
		return errs.Errorf(errs.EINVALID, "The remember token is required.")
	}
	return nil
}

func (uv *userValidator) rememberHmac(user *domain.User) error {
	if user.Remember == "" {
		return nil
	}
	user.RememberHash = uv.hmac.hash(user.Remember)
	return nil
}

func (uv *userValidator) rememberMinBytes(user *domain.User) error {
	if user.Remember == "" {
		return nil
	}
	n, err := nBytes(user.Remember)
	if err != nil {
		return err
	}
	if n < RememberTokenBytes {
		return errs.Errorf(errs.EINVALID, "The remember token must be at least 32 bytes.")
	}
	return nil
}

func (uv *userValidator) rememberSetIfUnset(user *domain.User) error {
	if user.Remember != "" {
		return nil
	}
	token, err := uv.MakeRememberToken()
	if err != nil {
		return err
	}
	user.Remember = token
	return nil
}

// ByID retrieves a User database record by ID.
func (ug *userGorm) ByID(id int) (*domain.User, error) {
	var user domain.User
	err := first(ug.db.Where("id = ?", id), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ByUsername retrieves a User database record by its unique username.
func (ug *userGorm) ByUsername(username string) (*domain.User, error) {
	var user domain.User
	err := first(ug.db.Where("username = ?", username), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ByEmail retrieves a User database record by Email.
func (ug *userGorm) ByEmail(email string) (*domain.User, error) {
	var user domain.User
	err := first(ug.db.Where("email = ?", email), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ByRemember retrieves a User database record by its hashed remember token.
// The checkUser middleware calls this on every request, trying to identify a
// user by matching a request cookie's remember token against the database.
func (ug *userGorm) ByRemember(rememberHash string) (*domain.User, error) {
	var user domain.User
	err := first(ug.db.Where("remember_hash = ?", rememberHash), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create stores the data from the User object in a new database record.
func (ug *userGorm) Create(user *domain.User) error {
	return ug.db.Create(user).Error
}

// Update saves changes to an existing user record in the database.
func (ug *userGorm) Update(user *domain.User) error {
	return ug.db.Save(user).Error
}

// Suggested draws a random sample of users to suggest to the given user.
// The sample excludes the user themselves, anyone they already follow is
// filtered out afterwards, and at most SuggestedMax users are returned.
// The post-filter count may be fewer if many sampled users are already followed.
func (ug *userGorm) Suggested(userID int) ([]domain.User, error) {
	var sample []domain.User
	err := ug.db.
		Where("id <> ?", userID).
		Order("RANDOM()").
		Limit(SuggestedSampleSize).
		Find(&sample).Error
	if err != nil {
		return nil, err
	}

	var followedIDs []int
	err = ug.db.Model(&domain.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followed_id", &followedIDs).Error
	if err != nil {
		return nil, err
	}
	followed := make(map[int]bool, len(followedIDs))
	for _, id := range followedIDs {
		followed[id] = true
	}

	suggested := make([]domain.User, 0, SuggestedMax)
	for _, user := range sample {
		if followed[user.ID] {
			continue
		}
		suggested = append(suggested, user)
		if len(suggested) == SuggestedMax {
			break
		}
	}
	return suggested, nil
}

// CountFollowers returns the number of users following the given user.
func (ug *userGorm) CountFollowers(id int) (int64, error) {
	var count int64
	err := ug.db.Model(&domain.Follow{}).Where("followed_id = ?", id).Count(&count).Error
	return count, err
}

// CountFolloweds returns the number of users the given user is following.
func (ug *userGorm) CountFolloweds(id int) (int64, error) {
	var count int64
	err := ug.db.Model(&domain.Follow{}).Where("follower_id = ?", id).Count(&count).Error
	return count, err
}

// first is a helper for getting the first database record that matches a
// given query, translating gorm's not-found error into the app's own.
func first(db *gorm.DB, dst interface{}) error {
	err := db.First(dst).Error
	if err == gorm.ErrRecordNotFound {
		return errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
	}
	return err
}

// HMAC is a wrapper around the crypto/hmac package making it easier to use.
type HMAC struct {
	key []byte
}

// newHMAC creates and returns a new HMAC object.
func newHMAC(key string) HMAC {
	return HMAC{
		key: []byte(key),
	}
}

// hash hashes an input string using HMAC with the secret key provided when
// the HMAC object was created in NewUserService. A hash.Hash is not safe for
// concurrent use, so a fresh one is constructed per call; the user-loading
// middleware hashes remember tokens from concurrent requests.
func (h HMAC) hash(input string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(input))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

const RememberTokenBytes = 32

// randomBytes generates n random bytes using the crypto/rand package,
// so it can be used for things like remember tokens.
func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// nBytes returns the number of bytes used in a base64 URL encoded string.
func nBytes(base64String string) (int, error) {
	b, err := base64.URLEncoding.DecodeString(base64String)
	if err != nil {
		return -1, err
	}
	return len(b), nil
}

// bytesToString generates a byte slice of size n and returns
// its base64 URL encoded version as a string.
func bytesToString(n int) (string, error) {
	b, err := randomBytes(n)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
