package randomuser

import (
	"strconv"

	"github.com/GoArmGo/UserManagerApp/internal/domain"
)

// apiResponse — конверт ответа Random User API
type apiResponse struct {
	Results []apiUser `json:"results"`
}

// apiUser повторяет схему randomuser.me. Отдельная структура нужна из-за
// неоднородных полей API: postcode приходит то строкой, то числом.
type apiUser struct {
	Gender string `json:"gender"`
	Name   struct {
		Title string `json:"title"`
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"name"`
	Location struct {
		Street struct {
			Number int    `json:"number"`
			Name   string `json:"name"`
		} `json:"street"`
		City        string `json:"city"`
		State       string `json:"state"`
		Country     string `json:"country"`
		Postcode    any    `json:"postcode"`
		Coordinates struct {
			Latitude  string `json:"latitude"`
			Longitude string `json:"longitude"`
		} `json:"coordinates"`
		Timezone struct {
			Offset      string `json:"offset"`
			Description string `json:"description"`
		} `json:"timezone"`
	} `json:"location"`
	Email string `json:"email"`
	Login struct {
		UUID     string `json:"uuid"`
		Username string `json:"username"`
	} `json:"login"`
	Dob struct {
		Date string `json:"date"`
		Age  int    `json:"age"`
	} `json:"dob"`
	Registered struct {
		Date string `json:"date"`
		Age  int    `json:"age"`
	} `json:"registered"`
	Phone string `json:"phone"`
	Cell  string `json:"cell"`
	ID    struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"id"`
	Picture struct {
		Large     string `json:"large"`
		Medium    string `json:"medium"`
		Thumbnail string `json:"thumbnail"`
	} `json:"picture"`
	Nat string `json:"nat"`
}

// toDomain маппит ответ API во внутреннюю доменную модель
func (u apiUser) toDomain() domain.User {
	return domain.User{
		Gender: u.Gender,
		Name: domain.UserName{
			Title: u.Name.Title,
			First: u.Name.First,
			Last:  u.Name.Last,
		},
		Location: domain.UserLocation{
			Street: domain.UserStreet{
				Number: u.Location.Street.Number,
				Name:   u.Location.Street.Name,
			},
			City:     u.Location.City,
			State:    u.Location.State,
			Country:  u.Location.Country,
			Postcode: postcodeToString(u.Location.Postcode),
			Coordinates: domain.UserCoordinates{
				Latitude:  u.Location.Coordinates.Latitude,
				Longitude: u.Location.Coordinates.Longitude,
			},
			Timezone: domain.UserTimezone{
				Offset:      u.Location.Timezone.Offset,
				Description: u.Location.Timezone.Description,
			},
		},
		Email: u.Email,
		Login: domain.UserLogin{
			UUID:     u.Login.UUID,
			Username: u.Login.Username,
		},
		Dob: domain.UserDate{
			Date: u.Dob.Date,
			Age:  u.Dob.Age,
		},
		Registered: domain.UserDate{
			Date: u.Registered.Date,
			Age:  u.Registered.Age,
		},
		Phone: u.Phone,
		Cell:  u.Cell,
		ID: domain.UserDocument{
			Name:  u.ID.Name,
			Value: u.ID.Value,
		},
		Picture: domain.UserPicture{
			Large:     u.Picture.Large,
			Medium:    u.Picture.Medium,
			Thumbnail: u.Picture.Thumbnail,
		},
		Nat: u.Nat,
	}
}

// postcodeToString нормализует postcode: API отдает его строкой или числом
func postcodeToString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}
