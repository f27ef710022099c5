package utils

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "庆",
	"建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, py := range pinyinArray {
		length := rand.Intn(len(py)) + 1
		username += py[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

// GuestLabel 把中文姓名转成首字母大写的拼音，例如 "王小明" -> "WangXiaoMing"
func GuestLabel(chineseName string) string {
	var b strings.Builder
	for _, py := range pinyin.LazyConvert(chineseName, nil) {
		if py == "" {
			continue
		}
		b.WriteString(strings.ToUpper(py[:1]) + py[1:])
	}
	return b.String()
}

// GenerateGuestLabels 生成 n 个互不相同的宾客名，重名时追加序号
func GenerateGuestLabels(n int) []string {
	labels := make([]string, n)
	seen := make(map[string]int, n)
	for i := range labels {
		label := GuestLabel(GenerateRandomChineseName())
		seen[label]++
		if seen[label] > 1 {
			label = fmt.Sprintf("%s%d", label, seen[label])
		}
		labels[i] = label
	}
	return labels
}

// GenerateRandomRelationshipMatrix 生成对称、对角线为 0 的关系矩阵，元素是 [0, maxAffinity] 之间的整数
func GenerateRandomRelationshipMatrix(n int, maxAffinity int) [][]float64 {
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := float64(rand.Intn(maxAffinity + 1))
			matrix[i][j] = v
			matrix[j][i] = v
		}
	}

	return matrix
}

func GenerateRandomRelationshipSheet(n int, maxAffinity int, createdBy int64) *domain.RelationshipSheet {
	return &domain.RelationshipSheet{
		Name:        "关系表" + GenerateRandomID(3, 3),
		Description: fmt.Sprintf("随机生成的 %d 位宾客的关系表", n),
		Guests:      GenerateGuestLabels(n),
		Matrix:      GenerateRandomRelationshipMatrix(n, maxAffinity),
		CreatedBy:   createdBy,
	}
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RolePlanner,
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	randomID := make([]rune, letterLength+digitLength)
	for i := range randomID {
		if i < letterLength {
			randomID[i] = letters[rand.Intn(52)] // 只取字母
		} else {
			randomID[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(randomID)
}
