package domain

// User представляет каноническую вложенную модель пользователя,
// как её возвращает Random User API (randomuser.me).
// Обе подсистемы хранения (БД и CSV) раскладывают её в плоские колонки
// и собирают обратно.
type User struct {
	Gender     string       `json:"gender"`
	Name       UserName     `json:"name"`
	Location   UserLocation `json:"location"`
	Email      string       `json:"email"`
	Login      UserLogin    `json:"login"`
	Dob        UserDate     `json:"dob"`
	Registered UserDate     `json:"registered"`
	Phone      string       `json:"phone"`
	Cell       string       `json:"cell"`
	ID         UserDocument `json:"id"`
	Picture    UserPicture  `json:"picture"`
	Nat        string       `json:"nat"`
}

type UserName struct {
	Title string `json:"title"`
	First string `json:"first"`
	Last  string `json:"last"`
}

type UserStreet struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// Координаты и часовой пояс randomuser.me отдает строками, храним как есть.
type UserCoordinates struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

type UserTimezone struct {
	Offset      string `json:"offset"`
	Description string `json:"description"`
}

type UserLocation struct {
	Street      UserStreet      `json:"street"`
	City        string          `json:"city"`
	State       string          `json:"state"`
	Country     string          `json:"country"`
	Postcode    string          `json:"postcode"`
	Coordinates UserCoordinates `json:"coordinates"`
	Timezone    UserTimezone    `json:"timezone"`
}

// UserLogin содержит login.uuid — единственный натуральный ключ,
// по которому одна и та же логическая запись находится в обоих хранилищах.
type UserLogin struct {
	UUID     string `json:"uuid"`
	Username string `json:"username"`
}

type UserDate struct {
	Date string `json:"date"`
	Age  int    `json:"age"`
}

// UserDocument — поле 'id' из API (тип документа и его значение),
// не путать с идентификаторами хранилищ.
type UserDocument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type UserPicture struct {
	Large     string `json:"large"`
	Medium    string `json:"medium"`
	Thumbnail string `json:"thumbnail"`
}

// DBUser — запись, прочитанная из реляционного хранилища:
// User плюс выданный таблицей суррогатный ключ db_id.
type DBUser struct {
	User
	DBID int64 `json:"db_id"`
}

// CSVUser — запись, прочитанная из CSV-файла владельца:
// User плюс локальный для файла csv_id.
// db_id и csv_id независимы и никогда не взаимозаменяемы.
type CSVUser struct {
	User
	CSVID int64 `json:"csv_id"`
}
