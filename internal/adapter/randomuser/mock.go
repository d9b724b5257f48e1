package randomuser

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/GoArmGo/UserManagerApp/internal/domain"
)

var (
	mockFirstNames = []string{"Иван", "Мария", "Алексей", "Ольга", "Дмитрий", "Анна", "Сергей", "Елена"}
	mockLastNames  = []string{"Иванов", "Петрова", "Смирнов", "Кузнецова", "Попов", "Соколова", "Лебедев", "Козлова"}
	mockCities     = []string{"Москва", "Санкт-Петербург", "Новосибирск", "Екатеринбург", "Казань"}
)

// generateMockUsers формирует синтетические записи, когда внешний API
// недоступен. Записи помечены доменом example.com в email и nat "RU",
// login.uuid — настоящий UUID, чтобы дедупликация работала как обычно.
func generateMockUsers(count int) []domain.User {
	users := make([]domain.User, 0, count)
	now := time.Now().UTC()

	for i := 0; i < count; i++ {
		first := mockFirstNames[rand.Intn(len(mockFirstNames))]
		last := mockLastNames[rand.Intn(len(mockLastNames))]
		age := 18 + rand.Intn(60)
		username := fmt.Sprintf("mockuser%d", rand.Intn(100000))

		users = append(users, domain.User{
			Gender: []string{"male", "female"}[rand.Intn(2)],
			Name: domain.UserName{
				Title: "Mr",
				First: first,
				Last:  last,
			},
			Location: domain.UserLocation{
				Street: domain.UserStreet{
					Number: 1 + rand.Intn(200),
					Name:   "Ленина",
				},
				City:     mockCities[rand.Intn(len(mockCities))],
				State:    "Московская область",
				Country:  "Россия",
				Postcode: fmt.Sprintf("%06d", 100000+rand.Intn(900000)),
				Coordinates: domain.UserCoordinates{
					Latitude:  fmt.Sprintf("%.4f", -90+rand.Float64()*180),
					Longitude: fmt.Sprintf("%.4f", -180+rand.Float64()*360),
				},
				Timezone: domain.UserTimezone{
					Offset:      "+3:00",
					Description: "Moscow, St. Petersburg, Volgograd",
				},
			},
			Email: fmt.Sprintf("%s@example.com", username),
			Login: domain.UserLogin{
				UUID:     uuid.NewString(),
				Username: username,
			},
			Dob: domain.UserDate{
				Date: now.AddDate(-age, 0, 0).Format(time.RFC3339),
				Age:  age,
			},
			Registered: domain.UserDate{
				Date: now.AddDate(-rand.Intn(10), 0, 0).Format(time.RFC3339),
				Age:  rand.Intn(10),
			},
			Phone: fmt.Sprintf("+7 (495) %03d-%02d-%02d", rand.Intn(1000), rand.Intn(100), rand.Intn(100)),
			Cell:  fmt.Sprintf("+7 (9%02d) %03d-%02d-%02d", rand.Intn(100), rand.Intn(1000), rand.Intn(100), rand.Intn(100)),
			ID: domain.UserDocument{
				Name:  "INN",
				Value: fmt.Sprintf("%012d", rand.Int63n(1000000000000)),
			},
			Picture: domain.UserPicture{
				Large:     "https://randomuser.me/api/portraits/lego/1.jpg",
				Medium:    "https://randomuser.me/api/portraits/med/lego/1.jpg",
				Thumbnail: "https://randomuser.me/api/portraits/thumb/lego/1.jpg",
			},
			Nat: "RU",
		})
	}

	return users
}
